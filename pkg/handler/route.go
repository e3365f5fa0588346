package handler

// Route type
type Route string

const (
	// RouteList list all clients in stored order
	RouteList Route = "list"
	// RouteCreate append a client
	RouteCreate Route = "create"
	// RouteGet get a client by index
	RouteGet Route = "get"
	// RouteUpdate replace a client by index
	RouteUpdate Route = "update"
	// RouteDelete delete a client by index
	RouteDelete Route = "delete"
	// RouteFind get a client by id
	RouteFind Route = "find"
	// RouteUpdateByID replace a client by id
	RouteUpdateByID Route = "updateByID"
	// RouteDeleteByID delete a client by id
	RouteDeleteByID Route = "deleteByID"
)

// error codes used in responses.Error
const (
	CodeInternal        = 3
	CodeInvalidRequest  = 2
	CodeInvalidRecord   = 4
	CodeIndexOutOfRange = 5
	CodeNotFound        = 6
	CodeUnavailable     = 7
)
