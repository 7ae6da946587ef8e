package bbs

// Request and response envelopes of the BBS API. Every response carries an
// optional *Error; a transport-level 200 with Error set is an application
// failure the caller must inspect.

type PingResponse struct {
	Available bool
}

type UpsertDomainRequest struct {
	Domain string
	Ttl    uint32
}

type UpsertDomainResponse struct {
	Error *Error
}

type DesireTaskRequest struct {
	TaskDefinition *TaskDefinition `json:"task_definition"`
	TaskGuid       string          `json:"task_guid"`
	Domain         string          `json:"domain"`
}

type TaskLifecycleResponse struct {
	Error *Error
}

type TaskGuidRequest struct {
	TaskGuid string
}

type TaskByGuidRequest struct {
	TaskGuid string
}

type TaskResponse struct {
	Error *Error
	Task  *Task
}

type TasksRequest struct {
	Domain string
	CellId string
}

type TasksResponse struct {
	Error *Error
	Tasks []*Task
}

type DesireLRPRequest struct {
	DesiredLRP *DesiredLRP
}

type DesiredLRPLifecycleResponse struct {
	Error *Error
}

type DesiredLRPByProcessGuidRequest struct {
	ProcessGuid string
}

type DesiredLRPResponse struct {
	Error      *Error
	DesiredLRP *DesiredLRP
}

type UpdateDesiredLRPRequest struct {
	ProcessGuid string
	Update      *DesiredLRPUpdate
}

type RemoveDesiredLRPRequest struct {
	ProcessGuid string
}

type DesiredLRPsRequest struct {
	Domain       string
	ProcessGuids []string
}

type DesiredLRPSchedulingInfosResponse struct {
	Error                     *Error
	DesiredLRPSchedulingInfos []*DesiredLRPSchedulingInfo
}

type ActualLRPsRequest struct {
	Domain      string
	CellId      string
	ProcessGuid string
}

type ActualLRPsResponse struct {
	Error      *Error
	ActualLRPs []*ActualLRP
}

type RetireActualLRPRequest struct {
	ActualLRPKey *ActualLRPKey
}

type ActualLRPLifecycleResponse struct {
	Error *Error
}

// EmptyRequest is sent by endpoints that take no body, such as ping.
type EmptyRequest struct{}
