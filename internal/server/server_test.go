package server_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/config"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/db/dbtest"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/server"
	"github.com/oggyb/mawaddah/internal/service/auth"
	"github.com/oggyb/mawaddah/internal/service/search"
)

const secret = "server-test-secret"

func setupApp(t *testing.T) *app.AppContext {
	t.Helper()

	gdb := dbtest.Open(t)
	dbtest.User(t, gdb, 1, db.StatusActive)
	dbtest.User(t, gdb, 2, db.StatusActive)
	dbtest.User(t, gdb, 3, db.StatusActive)
	dbtest.Profile(t, gdb, db.Profile{UserID: 1, Gender: "male", MaritalStatus: normalize.SingleMale, DateOfBirth: dbtest.DOB(1994, time.March, 1)})
	dbtest.Profile(t, gdb, db.Profile{UserID: 2, Gender: "female", MaritalStatus: normalize.SingleFemale, DateOfBirth: dbtest.DOB(1996, time.May, 5)})

	cfg := config.New()
	cfg.Auth.JWTSecret = secret
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.HTTP.Prefix = "/api"
	cfg.HTTP.CORSOrigins = []string{"https://app.example.com"}

	appCtx := app.New(cfg, gdb, nil, logger.Discard())
	appCtx.Now = func() time.Time { return time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC) }
	return appCtx
}

func tokenFor(t *testing.T, userID uint64) string {
	t.Helper()
	token, _, err := auth.NewJWTManager(secret, time.Hour).Issue(userID, "")
	require.NoError(t, err)
	return token
}

func TestRouter(t *testing.T) {
	appCtx := setupApp(t)
	router := server.NewRouter(appCtx, auth.NewAuthService(appCtx))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/search?minAge=25", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/search?minAge=25&maxAge=35", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, 1))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"success"`)

	for path, want := range map[string]int{
		"/api/profiles/me":  http.StatusOK,
		"/api/profiles/2":   http.StatusOK,
		"/api/profiles/99":  http.StatusNotFound,
		"/api/profiles/abc": http.StatusBadRequest,
	} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, 1))
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, path)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"new@example.com","password":"long-enough"}`)))
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func dialBuf(t *testing.T, appCtx *app.AppContext) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(appCtx, auth.NewAuthService(appCtx), search.NewRegistrar(appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPCSearch(t *testing.T) {
	appCtx := setupApp(t)
	conn := dialBuf(t, appCtx)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]any{"minAge": 25, "maxAge": "35"})
	require.NoError(t, err)

	var out structpb.Struct
	err = conn.Invoke(ctx, search.SearchMethod, req, &out)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tokenFor(t, 1))
	require.NoError(t, conn.Invoke(authed, search.SearchMethod, req, &out))
	assert.Equal(t, search.StatusSuccess, out.Fields["status"].GetStringValue())
	assert.Len(t, out.Fields["data"].GetListValue().GetValues(), 1)
	meta := out.Fields["meta"].GetStructValue().AsMap()
	assert.Equal(t, float64(1), meta["total"])

	// user 3 has no profile
	noProfile := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tokenFor(t, 3))
	err = conn.Invoke(noProfile, search.SearchMethod, req, &out)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	bad, err := structpb.NewStruct(map[string]any{"minAge": 10})
	require.NoError(t, err)
	err = conn.Invoke(authed, search.SearchMethod, bad, &out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCHealthIsPublic(t *testing.T) {
	conn := dialBuf(t, setupApp(t))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGRPCReflectionDescribesSearch(t *testing.T) {
	conn := dialBuf(t, setupApp(t))

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: search.ServiceName},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.NoError(t, stream.CloseSend())

	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files, "error: %v", resp.GetErrorResponse())

	var fdp descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &fdp))
	require.Len(t, fdp.GetService(), 1)
	method := fdp.GetService()[0].GetMethod()
	require.Len(t, method, 1)
	assert.Equal(t, "Search", method[0].GetName())
	assert.Equal(t, ".google.protobuf.Struct", method[0].GetInputType())
}
