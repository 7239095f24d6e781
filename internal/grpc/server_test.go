package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/lottery-draft/internal/dal"
	"github.com/Billy-Davies-2/lottery-draft/internal/lottery"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
	"github.com/Billy-Davies-2/lottery-draft/internal/pubsub"
)

func startTestServer(t *testing.T, records []models.TeamRecord) *gogrpc.ClientConn {
	t.Helper()

	engine := lottery.New(context.Background(), dal.NewMemoryDALWith(records), lottery.Options{
		PlayerCount:      3,
		CompetitionCount: 1,
		Sampler:          lottery.NewSampler(11),
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	grpcServer, _ := NewGRPCServer(engine, pubsub.New())
	go grpcServer.Serve(listener)

	conn, err := gogrpc.NewClient(
		listener.Addr().String(),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		grpcServer.Stop()
	})
	return conn
}

var threeTeams = []models.TeamRecord{
	{Name: "Lakers", Points: 3},
	{Name: "Celtics", Points: 2},
	{Name: "Bulls", Points: 1},
}

func listLen(s *structpb.Struct, field string) int {
	return len(s.GetFields()[field].GetListValue().GetValues())
}

func TestGetState(t *testing.T) {
	client := NewClient(startTestServer(t, threeTeams))
	ctx := context.Background()

	state, err := client.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() failed: %v", err)
	}

	if listLen(state, "teams") != 3 || listLen(state, "draft_order") != 0 {
		t.Fatalf("unexpected state: %v", state)
	}
	first := state.GetFields()["teams"].GetListValue().GetValues()[0].GetStructValue().GetFields()
	if first["team_name"].GetStringValue() != "Lakers" || first["team_lottery_pick_perc"].GetNumberValue() != 50 {
		t.Errorf("unexpected first team: %v", first)
	}
}

func TestGeneratePickUntilComplete(t *testing.T) {
	client := NewClient(startTestServer(t, threeTeams))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		result, err := client.GeneratePick(ctx)
		if err != nil {
			t.Fatalf("pick %d failed: %v", i, err)
		}
		if got := result.GetFields()["pick_number"].GetNumberValue(); got != float64(i) {
			t.Errorf("expected pick number %d, got %v", i, got)
		}
	}

	_, err := client.GeneratePick(ctx)
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition once complete, got %v", err)
	}
}

func TestUpdateTeamName(t *testing.T) {
	client := NewClient(startTestServer(t, threeTeams))
	ctx := context.Background()

	resp, err := client.UpdateTeamName(ctx, "Celtics", "Boston Celtics")
	if err != nil {
		t.Fatalf("UpdateTeamName() failed: %v", err)
	}
	if !resp.GetFields()["success"].GetBoolValue() {
		t.Errorf("expected success, got %v", resp)
	}

	_, err = client.UpdateTeamName(ctx, "Knicks", "NY")
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}

	_, err = client.UpdateTeamName(ctx, "Lakers", " ")
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for blank name, got %v", err)
	}
}

func TestUpdateTeamNameMissingFields(t *testing.T) {
	conn := startTestServer(t, threeTeams)

	in, _ := structpb.NewStruct(map[string]any{"original_name": "Lakers"})
	out := new(structpb.Struct)
	err := conn.Invoke(context.Background(), methodUpdateTeamName, in, out)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestResetDraft(t *testing.T) {
	client := NewClient(startTestServer(t, threeTeams))
	ctx := context.Background()

	client.GeneratePick(ctx)
	client.GeneratePick(ctx)

	state, err := client.ResetDraft(ctx)
	if err != nil {
		t.Fatalf("ResetDraft() failed: %v", err)
	}
	if listLen(state, "teams") != 3 || listLen(state, "draft_order") != 0 {
		t.Errorf("reset should restore the pool, got %v", state)
	}
}

func TestStreamEvents(t *testing.T) {
	client := NewClient(startTestServer(t, threeTeams))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.StreamEvents(ctx)
	if err != nil {
		t.Fatalf("StreamEvents() failed: %v", err)
	}

	hello, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if hello.GetFields()["type"].GetStringValue() != "connected" {
		t.Fatalf("expected connected message, got %v", hello)
	}

	if _, err := client.GeneratePick(ctx); err != nil {
		t.Fatalf("GeneratePick() failed: %v", err)
	}

	event, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if got := event.GetFields()["type"].GetStringValue(); got != pubsub.EventPick {
		t.Errorf("expected %s event, got %s", pubsub.EventPick, got)
	}
}

func TestHealthServing(t *testing.T) {
	conn := startTestServer(t, threeTeams)
	hc := healthpb.NewHealthClient(conn)

	for _, service := range []string{"", ServiceName} {
		resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("health check %q failed: %v", service, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("service %q: expected SERVING, got %v", service, resp.GetStatus())
		}
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{lottery.ErrDraftComplete, codes.FailedPrecondition},
		{lottery.ErrNoTeams, codes.FailedPrecondition},
		{lottery.ErrTeamNotFound, codes.NotFound},
		{lottery.ErrInvalidName, codes.InvalidArgument},
		{context.Canceled, codes.Internal},
	}

	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
