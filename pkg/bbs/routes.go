package bbs

// Routes of the BBS HTTP API. All are POSTs carrying a protobuf body.
const (
	PingRoute                      = "/v1/ping"
	UpsertDomainRoute              = "/v1/domains/upsert"
	DesireTaskRoute                = "/v1/tasks/desire.r2"
	TaskByGuidRoute                = "/v1/tasks/get_by_task_guid.r2"
	ListTasksRoute                 = "/v1/tasks/list.r2"
	CancelTaskRoute                = "/v1/tasks/cancel"
	DesireDesiredLRPRoute          = "/v1/desired_lrp/desire.r2"
	DesiredLRPByProcessGuidRoute   = "/v1/desired_lrps/get_by_process_guid.r2"
	UpdateDesiredLRPRoute          = "/v1/desired_lrp/update"
	RemoveDesiredLRPRoute          = "/v1/desired_lrp/remove"
	DesiredLRPSchedulingInfosRoute = "/v1/desired_lrp_scheduling_infos/list"
	ActualLRPsRoute                = "/v1/actual_lrps/list"
	RetireActualLRPRoute           = "/v1/actual_lrps/retire"
)
