package search

import (
	"context"
	"encoding/json"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/mawaddah/internal/app"
	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/service/auth"
)

const (
	ServiceName  = "matchmaking.search.v1.SearchService"
	SearchMethod = "/" + ServiceName + "/Search"

	protoFile = "matchmaking/search/v1/search.proto"
)

// There is no generated code for the service, so its file descriptor is
// assembled here and registered globally for server reflection.
func init() {
	structName := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFile),
		Package:    proto.String("matchmaking.search.v1"),
		Dependency: []string{structpb.File_google_protobuf_struct_proto.Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("SearchService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Search"),
				InputType:  proto.String(structName),
				OutputType: proto.String(structName),
			}},
		}},
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic("search: build descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("search: register descriptor: " + err.Error())
	}
}

// SearchServer is the gRPC surface of the search service. Requests and
// responses are google.protobuf.Struct values carrying the same fields as
// the REST endpoint.
type SearchServer interface {
	Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: searchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SearchServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SearchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SearchServer).Search(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCHandler adapts Service to SearchServer.
type GRPCHandler struct {
	svc *Service
}

func NewGRPCHandler(svc *Service) *GRPCHandler {
	return &GRPCHandler{svc: svc}
}

// Search reads criteria from req, runs the search for the authenticated
// caller and returns the REST-shaped envelope as a Struct.
func (h *GRPCHandler) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, svcErr.Map(svcErr.Unauthenticated("authentication required"))
	}

	c, err := ParseCriteria(structGetter(req))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp, err := h.svc.Search(ctx, identity.UserID, c)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(Envelope(c, resp))
}

// structGetter renders Struct fields as the strings ParseCriteria expects.
func structGetter(s *structpb.Struct) func(string) string {
	fields := s.GetFields()
	return func(key string) string {
		v, ok := fields[key]
		if !ok {
			return ""
		}
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			return k.StringValue
		case *structpb.Value_NumberValue:
			return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
		case *structpb.Value_BoolValue:
			return strconv.FormatBool(k.BoolValue)
		default:
			return ""
		}
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, svcErr.Map(err)
	}
	return out, nil
}

// Registrar ties the search service into the gRPC server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the search service implementation to the gRPC server.
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&serviceDesc, NewGRPCHandler(NewSearchService(r.appCtx)))
}
