package bbs

import "google.golang.org/protobuf/encoding/protowire"

// Every response reserves field 1 for the application error.
func encodeError(e *encoder, err *Error) {
	if err != nil {
		e.message(1, err)
	}
}

func (EmptyRequest) encode(*encoder) {}

func (EmptyRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return skipField(num, typ, b)
}

func (r *PingResponse) encode(e *encoder) { e.bool(1, r.Available) }

func (r *PingResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeBool(typ, b, &r.Available)
	}
	return skipField(num, typ, b)
}

func (r *UpsertDomainRequest) encode(e *encoder) {
	e.string(1, r.Domain)
	e.uvarint(2, uint64(r.Ttl))
}

func (r *UpsertDomainRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.Domain)
	case 2:
		return consumeUint32(typ, b, &r.Ttl)
	}
	return skipField(num, typ, b)
}

func (r *UpsertDomainResponse) encode(e *encoder) { encodeError(e, r.Error) }

func (r *UpsertDomainResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.Error)
	}
	return skipField(num, typ, b)
}

func (r *DesireTaskRequest) encode(e *encoder) {
	if r.TaskDefinition != nil {
		e.message(1, r.TaskDefinition)
	}
	e.string(2, r.TaskGuid)
	e.string(3, r.Domain)
}

func (r *DesireTaskRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.TaskDefinition)
	case 2:
		return consumeString(typ, b, &r.TaskGuid)
	case 3:
		return consumeString(typ, b, &r.Domain)
	}
	return skipField(num, typ, b)
}

func (r *TaskLifecycleResponse) encode(e *encoder) { encodeError(e, r.Error) }

func (r *TaskLifecycleResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.Error)
	}
	return skipField(num, typ, b)
}

func (r *TaskGuidRequest) encode(e *encoder) { e.string(1, r.TaskGuid) }

func (r *TaskGuidRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &r.TaskGuid)
	}
	return skipField(num, typ, b)
}

func (r *TaskByGuidRequest) encode(e *encoder) { e.string(1, r.TaskGuid) }

func (r *TaskByGuidRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &r.TaskGuid)
	}
	return skipField(num, typ, b)
}

func (r *TaskResponse) encode(e *encoder) {
	encodeError(e, r.Error)
	if r.Task != nil {
		e.message(2, r.Task)
	}
}

func (r *TaskResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.Error)
	case 2:
		return consumeSingle(typ, b, &r.Task)
	}
	return skipField(num, typ, b)
}

func (r *TasksRequest) encode(e *encoder) {
	e.string(1, r.Domain)
	e.string(2, r.CellId)
}

func (r *TasksRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.Domain)
	case 2:
		return consumeString(typ, b, &r.CellId)
	}
	return skipField(num, typ, b)
}

func (r *TasksResponse) encode(e *encoder) {
	encodeError(e, r.Error)
	for _, t := range r.Tasks {
		e.message(2, t)
	}
}

func (r *TasksResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.Error)
	case 2:
		return consumeRepeated(typ, b, &r.Tasks)
	}
	return skipField(num, typ, b)
}

func (r *DesireLRPRequest) encode(e *encoder) {
	if r.DesiredLRP != nil {
		e.message(1, r.DesiredLRP)
	}
}

func (r *DesireLRPRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.DesiredLRP)
	}
	return skipField(num, typ, b)
}

func (r *DesiredLRPLifecycleResponse) encode(e *encoder) { encodeError(e, r.Error) }

func (r *DesiredLRPLifecycleResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.Error)
	}
	return skipField(num, typ, b)
}

func (r *DesiredLRPByProcessGuidRequest) encode(e *encoder) { e.string(1, r.ProcessGuid) }

func (r *DesiredLRPByProcessGuidRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &r.ProcessGuid)
	}
	return skipField(num, typ, b)
}

func (r *DesiredLRPResponse) encode(e *encoder) {
	encodeError(e, r.Error)
	if r.DesiredLRP != nil {
		e.message(2, r.DesiredLRP)
	}
}

func (r *DesiredLRPResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.Error)
	case 2:
		return consumeSingle(typ, b, &r.DesiredLRP)
	}
	return skipField(num, typ, b)
}

func (r *UpdateDesiredLRPRequest) encode(e *encoder) {
	e.string(1, r.ProcessGuid)
	if r.Update != nil {
		e.message(2, r.Update)
	}
}

func (r *UpdateDesiredLRPRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.ProcessGuid)
	case 2:
		return consumeSingle(typ, b, &r.Update)
	}
	return skipField(num, typ, b)
}

func (r *RemoveDesiredLRPRequest) encode(e *encoder) { e.string(1, r.ProcessGuid) }

func (r *RemoveDesiredLRPRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &r.ProcessGuid)
	}
	return skipField(num, typ, b)
}

func (r *DesiredLRPsRequest) encode(e *encoder) {
	e.string(1, r.Domain)
	e.strings(2, r.ProcessGuids)
}

func (r *DesiredLRPsRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.Domain)
	case 2:
		return consumeStrings(typ, b, &r.ProcessGuids)
	}
	return skipField(num, typ, b)
}

func (r *DesiredLRPSchedulingInfosResponse) encode(e *encoder) {
	encodeError(e, r.Error)
	for _, info := range r.DesiredLRPSchedulingInfos {
		e.message(2, info)
	}
}

func (r *DesiredLRPSchedulingInfosResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.Error)
	case 2:
		return consumeRepeated(typ, b, &r.DesiredLRPSchedulingInfos)
	}
	return skipField(num, typ, b)
}

func (r *ActualLRPsRequest) encode(e *encoder) {
	e.string(1, r.Domain)
	e.string(2, r.CellId)
	e.string(4, r.ProcessGuid)
}

func (r *ActualLRPsRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &r.Domain)
	case 2:
		return consumeString(typ, b, &r.CellId)
	case 4:
		return consumeString(typ, b, &r.ProcessGuid)
	}
	return skipField(num, typ, b)
}

func (r *ActualLRPsResponse) encode(e *encoder) {
	encodeError(e, r.Error)
	for _, lrp := range r.ActualLRPs {
		e.message(2, lrp)
	}
}

func (r *ActualLRPsResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeSingle(typ, b, &r.Error)
	case 2:
		return consumeRepeated(typ, b, &r.ActualLRPs)
	}
	return skipField(num, typ, b)
}

func (r *RetireActualLRPRequest) encode(e *encoder) {
	if r.ActualLRPKey != nil {
		e.message(1, r.ActualLRPKey)
	}
}

func (r *RetireActualLRPRequest) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.ActualLRPKey)
	}
	return skipField(num, typ, b)
}

func (r *ActualLRPLifecycleResponse) encode(e *encoder) { encodeError(e, r.Error) }

func (r *ActualLRPLifecycleResponse) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeSingle(typ, b, &r.Error)
	}
	return skipField(num, typ, b)
}
