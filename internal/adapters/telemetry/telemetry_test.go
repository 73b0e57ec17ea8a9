package telemetry_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envcache/internal/adapters/telemetry"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func matches(pattern string) gomock.Matcher {
	re := regexp.MustCompile(pattern)
	return gomock.Cond(func(x any) bool {
		s, ok := x.(string)
		return ok && re.MatchString(s)
	})
}

func TestOTelTracer_LogsFinishedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(matches(`^fingerprint took \S+ fingerprint=abc paths=2$`)).Times(1)

	tracer := telemetry.NewOTelTracer(telemetry.NewLogBridge(log))
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	_, span := tracer.Start(context.Background(), "fingerprint")
	span.SetAttribute("paths", 2)
	span.SetAttribute("fingerprint", domain.Fingerprint("abc"))
	span.End()
}

func TestOTelTracer_RecordsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(matches(`^build took .* \(build failed: build\.sh exited with status 1\)$`)).Times(1)

	tracer := telemetry.NewOTelTracer(telemetry.NewLogBridge(log))
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	_, span := tracer.Start(context.Background(), "build")
	span.RecordError(zerr.Wrap(domain.ErrBuildFailed, "build.sh exited with status 1"))
	span.RecordError(nil)
	span.End()
}

func TestOTelTracer_NestedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		log.EXPECT().Debug(matches(`^lookup took`)),
		log.EXPECT().Debug(matches(`^ensure took`)),
	)

	tracer := telemetry.NewOTelTracer(telemetry.NewLogBridge(log))
	ctx, parent := tracer.Start(context.Background(), "ensure")
	_, child := tracer.Start(ctx, "lookup")
	child.End()
	parent.End()

	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "anything")
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	assert.Equal(t, ctx, got)
	assert.NoError(t, tracer.Shutdown(ctx))
}
