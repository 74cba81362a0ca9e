package server

import "google.golang.org/grpc"

// Registrar attaches one gRPC service to the server. search.Registrar is
// the only implementation today.
type Registrar interface {
	Register(s *grpc.Server)
}
