package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
)

func TestGraphsResolve(t *testing.T) {
	graphs := map[string]fx.Option{
		"http":   HTTP,
		"grpc":   GRPC,
		"worker": Worker,
		"all":    fx.Options(HTTP, GRPCServer, Workers),
		"api":    fx.Options(Module, EventLogger),
	}
	for name, graph := range graphs {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, fx.ValidateApp(graph))
		})
	}
}
