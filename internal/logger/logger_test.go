package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sitefront/internal/api"
)

func newResolveServer(t *testing.T, log zerolog.Logger, fn func(context.Context, *connect.Request[api.ResolveTenantRequest]) (*connect.Response[api.ResolveTenantResponse], error)) *connect.Client[api.ResolveTenantRequest, api.ResolveTenantResponse] {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle(api.ResolveTenantProcedure, connect.NewUnaryHandler(api.ResolveTenantProcedure, fn,
		connect.WithCodec(api.Codec{}),
		connect.WithInterceptors(NewConnectRequests(log)),
	))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return connect.NewClient[api.ResolveTenantRequest, api.ResolveTenantResponse](ts.Client(), ts.URL+api.ResolveTenantProcedure, connect.WithCodec(api.Codec{}))
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestConnectRequests_WrapUnary(t *testing.T) {
	var buf bytes.Buffer
	client := newResolveServer(t, zerolog.New(&buf), func(ctx context.Context, req *connect.Request[api.ResolveTenantRequest]) (*connect.Response[api.ResolveTenantResponse], error) {
		zerolog.Ctx(ctx).Debug().Msg("handler")
		return connect.NewResponse(&api.ResolveTenantResponse{Tenant: "d2d", Rule: "subdomain"}), nil
	})

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&api.ResolveTenantRequest{Host: "d2d.example.com"}))
	require.NoError(t, err)
	require.Equal(t, "d2d", res.Msg.Tenant)

	logged := entries(t, &buf)
	require.Len(t, logged, 2)
	require.Equal(t, "handler", logged[0]["message"])
	require.Equal(t, api.ResolveTenantProcedure, logged[0]["procedure"])
	require.Equal(t, "rpc call", logged[1]["message"])
	require.Equal(t, "info", logged[1]["level"])
	require.Equal(t, http.MethodPost, logged[1]["method"])
}

func TestConnectRequests_WrapUnary_errors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
		code  string
	}{
		{name: "not found", err: connect.NewError(connect.CodeNotFound, errors.New("site missing")), level: "warn", code: "not_found"},
		{name: "invalid argument", err: connect.NewError(connect.CodeInvalidArgument, errors.New("bad")), level: "warn", code: "invalid_argument"},
		{name: "internal", err: connect.NewError(connect.CodeInternal, errors.New("boom")), level: "error", code: "internal"},
		{name: "plain error", err: errors.New("boom"), level: "error", code: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			client := newResolveServer(t, zerolog.New(&buf), func(context.Context, *connect.Request[api.ResolveTenantRequest]) (*connect.Response[api.ResolveTenantResponse], error) {
				return nil, tt.err
			})

			_, err := client.CallUnary(context.Background(), connect.NewRequest(&api.ResolveTenantRequest{}))
			require.Error(t, err)

			logged := entries(t, &buf)
			require.Len(t, logged, 1)
			require.Equal(t, tt.level, logged[0]["level"])
			require.Equal(t, tt.code, logged[0]["code"])
		})
	}
}

func TestSetup(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, Setup(false).GetLevel())
	require.Equal(t, zerolog.DebugLevel, Setup(true).GetLevel())
}
