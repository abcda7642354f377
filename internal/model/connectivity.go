package model

// Connectivity is the session's view of whether the remote verification
// service can be reached.
type Connectivity string

const (
	ConnectivityUnknown     Connectivity = "unknown"
	ConnectivityReachable   Connectivity = "reachable"
	ConnectivityUnreachable Connectivity = "unreachable"
)
