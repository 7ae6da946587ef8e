package bbs

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers follow the scheduler's .proto definitions; do not renumber.

func (a *Action) encode(e *encoder) {
	if a.DownloadAction != nil {
		e.message(1, a.DownloadAction)
	}
	if a.UploadAction != nil {
		e.message(2, a.UploadAction)
	}
	if a.RunAction != nil {
		e.message(3, a.RunAction)
	}
	if a.TimeoutAction != nil {
		e.message(4, a.TimeoutAction)
	}
	if a.EmitProgressAction != nil {
		e.message(5, a.EmitProgressAction)
	}
	if a.TryAction != nil {
		e.message(6, a.TryAction)
	}
	if a.ParallelAction != nil {
		e.message(7, a.ParallelAction)
	}
	if a.SerialAction != nil {
		e.message(8, a.SerialAction)
	}
}

func (a *Action) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &a.DownloadAction)
	case 2:
		return consumeSingle(typ, b, &a.UploadAction)
	case 3:
		return consumeSingle(typ, b, &a.RunAction)
	case 4:
		return consumeSingle(typ, b, &a.TimeoutAction)
	case 5:
		return consumeSingle(typ, b, &a.EmitProgressAction)
	case 6:
		return consumeSingle(typ, b, &a.TryAction)
	case 7:
		return consumeSingle(typ, b, &a.ParallelAction)
	case 8:
		return consumeSingle(typ, b, &a.SerialAction)
	}
	return skipField(num, typ, b)
}

func (d *DownloadAction) encode(e *encoder) {
	e.string(1, d.Artifact)
	e.string(2, d.From)
	e.string(3, d.To)
	e.string(4, d.CacheKey)
	e.string(5, d.LogSource)
	e.string(6, d.User)
	e.string(7, d.ChecksumAlgorithm)
	e.string(8, d.ChecksumValue)
}

func (d *DownloadAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &d.Artifact)
	case 2:
		return consumeString(typ, b, &d.From)
	case 3:
		return consumeString(typ, b, &d.To)
	case 4:
		return consumeString(typ, b, &d.CacheKey)
	case 5:
		return consumeString(typ, b, &d.LogSource)
	case 6:
		return consumeString(typ, b, &d.User)
	case 7:
		return consumeString(typ, b, &d.ChecksumAlgorithm)
	case 8:
		return consumeString(typ, b, &d.ChecksumValue)
	}
	return skipField(num, typ, b)
}

func (u *UploadAction) encode(e *encoder) {
	e.string(1, u.Artifact)
	e.string(2, u.From)
	e.string(3, u.To)
	e.string(4, u.LogSource)
	e.string(5, u.User)
}

func (u *UploadAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &u.Artifact)
	case 2:
		return consumeString(typ, b, &u.From)
	case 3:
		return consumeString(typ, b, &u.To)
	case 4:
		return consumeString(typ, b, &u.LogSource)
	case 5:
		return consumeString(typ, b, &u.User)
	}
	return skipField(num, typ, b)
}

func (r *RunAction) encode(e *encoder) {
	e.string(1, r.Path)
	e.strings(2, r.Args)
	e.string(3, r.Dir)
	for _, env := range r.Env {
		e.message(4, env)
	}
	if r.ResourceLimits != nil {
		e.message(5, r.ResourceLimits)
	}
	e.string(6, r.User)
	e.string(7, r.LogSource)
	e.bool(8, r.SuppressLogOutput)
}

func (r *RunAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.Path)
	case 2:
		return consumeStrings(typ, b, &r.Args)
	case 3:
		return consumeString(typ, b, &r.Dir)
	case 4:
		return consumeRepeated(typ, b, &r.Env)
	case 5:
		return consumeSingle(typ, b, &r.ResourceLimits)
	case 6:
		return consumeString(typ, b, &r.User)
	case 7:
		return consumeString(typ, b, &r.LogSource)
	case 8:
		return consumeBool(typ, b, &r.SuppressLogOutput)
	}
	return skipField(num, typ, b)
}

func (t *TimeoutAction) encode(e *encoder) {
	if t.Action != nil {
		e.message(1, t.Action)
	}
	e.string(3, t.LogSource)
	e.int64(4, t.TimeoutMs)
}

func (t *TimeoutAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &t.Action)
	case 3:
		return consumeString(typ, b, &t.LogSource)
	case 4:
		return consumeInt64(typ, b, &t.TimeoutMs)
	}
	return skipField(num, typ, b)
}

func (p *EmitProgressAction) encode(e *encoder) {
	if p.Action != nil {
		e.message(1, p.Action)
	}
	e.string(2, p.StartMessage)
	e.string(3, p.SuccessMessage)
	e.string(4, p.FailureMessagePrefix)
	e.string(5, p.LogSource)
}

func (p *EmitProgressAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &p.Action)
	case 2:
		return consumeString(typ, b, &p.StartMessage)
	case 3:
		return consumeString(typ, b, &p.SuccessMessage)
	case 4:
		return consumeString(typ, b, &p.FailureMessagePrefix)
	case 5:
		return consumeString(typ, b, &p.LogSource)
	}
	return skipField(num, typ, b)
}

func (t *TryAction) encode(e *encoder) {
	if t.Action != nil {
		e.message(1, t.Action)
	}
	e.string(2, t.LogSource)
}

func (t *TryAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &t.Action)
	case 2:
		return consumeString(typ, b, &t.LogSource)
	}
	return skipField(num, typ, b)
}

func (p *ParallelAction) encode(e *encoder) {
	for _, a := range p.Actions {
		e.message(1, a)
	}
	e.string(2, p.LogSource)
}

func (p *ParallelAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeRepeated(typ, b, &p.Actions)
	case 2:
		return consumeString(typ, b, &p.LogSource)
	}
	return skipField(num, typ, b)
}

func (s *SerialAction) encode(e *encoder) {
	for _, a := range s.Actions {
		e.message(1, a)
	}
	e.string(2, s.LogSource)
}

func (s *SerialAction) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeRepeated(typ, b, &s.Actions)
	case 2:
		return consumeString(typ, b, &s.LogSource)
	}
	return skipField(num, typ, b)
}

func (v *EnvironmentVariable) encode(e *encoder) {
	e.string(1, v.Name)
	e.string(2, v.Value)
}

func (v *EnvironmentVariable) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &v.Name)
	case 2:
		return consumeString(typ, b, &v.Value)
	}
	return skipField(num, typ, b)
}

func (r *ResourceLimits) encode(e *encoder) {
	e.optionalUint64(1, r.Nofile)
}

func (r *ResourceLimits) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeOptionalUint64(typ, b, &r.Nofile)
	}
	return skipField(num, typ, b)
}

func (c *CachedDependency) encode(e *encoder) {
	e.string(1, c.Name)
	e.string(2, c.From)
	e.string(3, c.To)
	e.string(4, c.CacheKey)
	e.string(5, c.LogSource)
	e.string(6, c.ChecksumAlgorithm)
	e.string(7, c.ChecksumValue)
}

func (c *CachedDependency) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &c.Name)
	case 2:
		return consumeString(typ, b, &c.From)
	case 3:
		return consumeString(typ, b, &c.To)
	case 4:
		return consumeString(typ, b, &c.CacheKey)
	case 5:
		return consumeString(typ, b, &c.LogSource)
	case 6:
		return consumeString(typ, b, &c.ChecksumAlgorithm)
	case 7:
		return consumeString(typ, b, &c.ChecksumValue)
	}
	return skipField(num, typ, b)
}

func (l *ImageLayer) encode(e *encoder) {
	e.string(1, l.Name)
	e.string(2, l.URL)
	e.string(3, l.DestinationPath)
	e.int32(4, int32(l.LayerType))
	e.int32(5, int32(l.MediaType))
	e.int32(6, int32(l.DigestAlgorithm))
	e.string(7, l.DigestValue)
}

func (l *ImageLayer) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &l.Name)
	case 2:
		return consumeString(typ, b, &l.URL)
	case 3:
		return consumeString(typ, b, &l.DestinationPath)
	case 4:
		return consumeInt32(typ, b, (*int32)(&l.LayerType))
	case 5:
		return consumeInt32(typ, b, (*int32)(&l.MediaType))
	case 6:
		return consumeInt32(typ, b, (*int32)(&l.DigestAlgorithm))
	case 7:
		return consumeString(typ, b, &l.DigestValue)
	}
	return skipField(num, typ, b)
}

func (x *Error) encode(e *encoder) {
	e.int32(1, int32(x.Type))
	e.string(2, x.Message)
}

func (x *Error) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeInt32(typ, b, (*int32)(&x.Type))
	case 2:
		return consumeString(typ, b, &x.Message)
	}
	return skipField(num, typ, b)
}

func (t *TaskDefinition) encode(e *encoder) {
	e.string(1, t.RootFs)
	for _, env := range t.EnvironmentVariables {
		e.message(2, env)
	}
	if t.Action != nil {
		e.message(3, t.Action)
	}
	e.int32(4, t.DiskMb)
	e.int32(5, t.MemoryMb)
	e.uvarint(6, uint64(t.CpuWeight))
	e.bool(7, t.Privileged)
	e.string(8, t.LogSource)
	e.string(9, t.LogGuid)
	e.string(10, t.MetricsGuid)
	e.string(11, t.ResultFile)
	e.string(12, t.CompletionCallbackUrl)
	e.string(13, t.Annotation)
	for _, dep := range t.CachedDependencies {
		e.message(15, dep)
	}
	e.string(16, t.LegacyDownloadUser)
	e.strings(20, t.PlacementTags)
	e.int32(21, t.MaxPids)
	for _, layer := range t.ImageLayers {
		e.message(25, layer)
	}
}

func (t *TaskDefinition) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &t.RootFs)
	case 2:
		return consumeRepeated(typ, b, &t.EnvironmentVariables)
	case 3:
		return consumeSingle(typ, b, &t.Action)
	case 4:
		return consumeInt32(typ, b, &t.DiskMb)
	case 5:
		return consumeInt32(typ, b, &t.MemoryMb)
	case 6:
		return consumeUint32(typ, b, &t.CpuWeight)
	case 7:
		return consumeBool(typ, b, &t.Privileged)
	case 8:
		return consumeString(typ, b, &t.LogSource)
	case 9:
		return consumeString(typ, b, &t.LogGuid)
	case 10:
		return consumeString(typ, b, &t.MetricsGuid)
	case 11:
		return consumeString(typ, b, &t.ResultFile)
	case 12:
		return consumeString(typ, b, &t.CompletionCallbackUrl)
	case 13:
		return consumeString(typ, b, &t.Annotation)
	case 15:
		return consumeRepeated(typ, b, &t.CachedDependencies)
	case 16:
		return consumeString(typ, b, &t.LegacyDownloadUser)
	case 20:
		return consumeStrings(typ, b, &t.PlacementTags)
	case 21:
		return consumeInt32(typ, b, &t.MaxPids)
	case 25:
		return consumeRepeated(typ, b, &t.ImageLayers)
	}
	return skipField(num, typ, b)
}

func (t *Task) encode(e *encoder) {
	if t.TaskDefinition != nil {
		e.message(1, t.TaskDefinition)
	}
	e.string(2, t.TaskGuid)
	e.string(3, t.Domain)
	e.int64(4, t.CreatedAt)
	e.int64(5, t.UpdatedAt)
	e.int32(7, int32(t.State))
	e.string(8, t.CellId)
	e.string(9, t.Result)
	e.bool(10, t.Failed)
	e.string(11, t.FailureReason)
}

func (t *Task) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &t.TaskDefinition)
	case 2:
		return consumeString(typ, b, &t.TaskGuid)
	case 3:
		return consumeString(typ, b, &t.Domain)
	case 4:
		return consumeInt64(typ, b, &t.CreatedAt)
	case 5:
		return consumeInt64(typ, b, &t.UpdatedAt)
	case 7:
		return consumeInt32(typ, b, (*int32)(&t.State))
	case 8:
		return consumeString(typ, b, &t.CellId)
	case 9:
		return consumeString(typ, b, &t.Result)
	case 10:
		return consumeBool(typ, b, &t.Failed)
	case 11:
		return consumeString(typ, b, &t.FailureReason)
	}
	return skipField(num, typ, b)
}

func (d *DesiredLRP) encode(e *encoder) {
	e.string(1, d.ProcessGuid)
	e.string(2, d.Domain)
	e.string(3, d.RootFs)
	e.int32(4, d.Instances)
	for _, env := range d.EnvironmentVariables {
		e.message(5, env)
	}
	if d.Setup != nil {
		e.message(6, d.Setup)
	}
	if d.Action != nil {
		e.message(7, d.Action)
	}
	if d.Monitor != nil {
		e.message(9, d.Monitor)
	}
	e.int32(10, d.DiskMb)
	e.int32(11, d.MemoryMb)
	e.uvarint(12, uint64(d.CpuWeight))
	e.bool(13, d.Privileged)
	e.packedUint32s(14, d.Ports)
	e.string(16, d.LogSource)
	e.string(17, d.LogGuid)
	e.string(18, d.MetricsGuid)
	e.string(19, d.Annotation)
	for _, dep := range d.CachedDependencies {
		e.message(22, dep)
	}
	e.string(23, d.LegacyDownloadUser)
	e.int64(27, d.StartTimeoutMs)
	e.strings(28, d.PlacementTags)
	e.int32(29, d.MaxPids)
	for _, layer := range d.ImageLayers {
		e.message(34, layer)
	}
}

func (d *DesiredLRP) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &d.ProcessGuid)
	case 2:
		return consumeString(typ, b, &d.Domain)
	case 3:
		return consumeString(typ, b, &d.RootFs)
	case 4:
		return consumeInt32(typ, b, &d.Instances)
	case 5:
		return consumeRepeated(typ, b, &d.EnvironmentVariables)
	case 6:
		return consumeSingle(typ, b, &d.Setup)
	case 7:
		return consumeSingle(typ, b, &d.Action)
	case 9:
		return consumeSingle(typ, b, &d.Monitor)
	case 10:
		return consumeInt32(typ, b, &d.DiskMb)
	case 11:
		return consumeInt32(typ, b, &d.MemoryMb)
	case 12:
		return consumeUint32(typ, b, &d.CpuWeight)
	case 13:
		return consumeBool(typ, b, &d.Privileged)
	case 14:
		return consumeUint32s(typ, b, &d.Ports)
	case 16:
		return consumeString(typ, b, &d.LogSource)
	case 17:
		return consumeString(typ, b, &d.LogGuid)
	case 18:
		return consumeString(typ, b, &d.MetricsGuid)
	case 19:
		return consumeString(typ, b, &d.Annotation)
	case 22:
		return consumeRepeated(typ, b, &d.CachedDependencies)
	case 23:
		return consumeString(typ, b, &d.LegacyDownloadUser)
	case 27:
		return consumeInt64(typ, b, &d.StartTimeoutMs)
	case 28:
		return consumeStrings(typ, b, &d.PlacementTags)
	case 29:
		return consumeInt32(typ, b, &d.MaxPids)
	case 34:
		return consumeRepeated(typ, b, &d.ImageLayers)
	}
	return skipField(num, typ, b)
}

func (u *DesiredLRPUpdate) encode(e *encoder) {
	// Both fields are presence-tracked: zero instances is a valid update.
	if u.Instances != nil && e.err == nil {
		e.b = protowire.AppendTag(e.b, 1, protowire.VarintType)
		e.b = protowire.AppendVarint(e.b, uint64(int64(*u.Instances)))
	}
	if u.Annotation != nil && e.err == nil {
		e.b = protowire.AppendTag(e.b, 3, protowire.BytesType)
		e.b = protowire.AppendString(e.b, *u.Annotation)
	}
}

func (u *DesiredLRPUpdate) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		var v int32
		n, err := consumeInt32(typ, b, &v)
		if err != nil {
			return 0, err
		}
		u.Instances = &v
		return n, nil
	case 3:
		var v string
		n, err := consumeString(typ, b, &v)
		if err != nil {
			return 0, err
		}
		u.Annotation = &v
		return n, nil
	}
	return skipField(num, typ, b)
}

func (k *DesiredLRPKey) encode(e *encoder) {
	e.string(1, k.ProcessGuid)
	e.string(2, k.Domain)
	e.string(3, k.LogGuid)
}

func (k *DesiredLRPKey) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &k.ProcessGuid)
	case 2:
		return consumeString(typ, b, &k.Domain)
	case 3:
		return consumeString(typ, b, &k.LogGuid)
	}
	return skipField(num, typ, b)
}

func (s *DesiredLRPSchedulingInfo) encode(e *encoder) {
	if s.DesiredLRPKey != nil {
		e.message(1, s.DesiredLRPKey)
	}
	e.string(2, s.Annotation)
	e.int32(3, s.Instances)
}

func (s *DesiredLRPSchedulingInfo) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &s.DesiredLRPKey)
	case 2:
		return consumeString(typ, b, &s.Annotation)
	case 3:
		return consumeInt32(typ, b, &s.Instances)
	}
	return skipField(num, typ, b)
}

func (k *ActualLRPKey) encode(e *encoder) {
	e.string(1, k.ProcessGuid)
	e.int32(2, k.Index)
	e.string(3, k.Domain)
}

func (k *ActualLRPKey) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &k.ProcessGuid)
	case 2:
		return consumeInt32(typ, b, &k.Index)
	case 3:
		return consumeString(typ, b, &k.Domain)
	}
	return skipField(num, typ, b)
}

func (k *ActualLRPInstanceKey) encode(e *encoder) {
	e.string(1, k.InstanceGuid)
	e.string(2, k.CellId)
}

func (k *ActualLRPInstanceKey) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &k.InstanceGuid)
	case 2:
		return consumeString(typ, b, &k.CellId)
	}
	return skipField(num, typ, b)
}

func (a *ActualLRP) encode(e *encoder) {
	if a.ActualLRPKey != nil {
		e.message(1, a.ActualLRPKey)
	}
	if a.ActualLRPInstanceKey != nil {
		e.message(2, a.ActualLRPInstanceKey)
	}
	e.int32(4, a.CrashCount)
	e.string(5, a.CrashReason)
	e.string(6, a.State)
	e.string(7, a.PlacementError)
	e.int64(8, a.Since)
}

func (a *ActualLRP) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &a.ActualLRPKey)
	case 2:
		return consumeSingle(typ, b, &a.ActualLRPInstanceKey)
	case 4:
		return consumeInt32(typ, b, &a.CrashCount)
	case 5:
		return consumeString(typ, b, &a.CrashReason)
	case 6:
		return consumeString(typ, b, &a.State)
	case 7:
		return consumeString(typ, b, &a.PlacementError)
	case 8:
		return consumeInt64(typ, b, &a.Since)
	}
	return skipField(num, typ, b)
}
