package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// callABI is the exported-function surface of the support runtime.
// All cross-boundary state transfer goes through i32 arguments and
// returns; correctness depends on the run -> read* -> drop call order.
type callABI interface {
	run(ctx context.Context, offA, lenA, offB, lenB, seed uint32) (int32, error)
	resultWinner(ctx context.Context, handle int32) (int32, error)
	resultTicks(ctx context.Context, handle int32) (int32, error)
	resultCycles(ctx context.Context, handle int32) (int32, error)
	resultReasonLen(ctx context.Context, handle int32) (int32, error)
	resultReasonByte(ctx context.Context, handle, index int32) (int32, error)
	resultDrop(ctx context.Context, handle int32) error
}

// guestABI binds the runtime's exported functions once at startup so
// per-game calls don't pay an export lookup.
type guestABI struct {
	runGame       api.Function
	getWinner     api.Function
	getTicks      api.Function
	getCycles     api.Function
	getReasonLen  api.Function
	getReasonByte api.Function
	drop          api.Function
}

func call1(ctx context.Context, fn api.Function, args ...uint64) (int32, error) {
	res, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, fmt.Errorf("expected one result, got %d", len(res))
	}
	return int32(uint32(res[0])), nil
}

func (g *guestABI) run(ctx context.Context, offA, lenA, offB, lenB, seed uint32) (int32, error) {
	return call1(ctx, g.runGame,
		uint64(offA), uint64(lenA), uint64(offB), uint64(lenB), uint64(seed))
}

func (g *guestABI) resultWinner(ctx context.Context, handle int32) (int32, error) {
	return call1(ctx, g.getWinner, uint64(uint32(handle)))
}

func (g *guestABI) resultTicks(ctx context.Context, handle int32) (int32, error) {
	return call1(ctx, g.getTicks, uint64(uint32(handle)))
}

func (g *guestABI) resultCycles(ctx context.Context, handle int32) (int32, error) {
	return call1(ctx, g.getCycles, uint64(uint32(handle)))
}

func (g *guestABI) resultReasonLen(ctx context.Context, handle int32) (int32, error) {
	return call1(ctx, g.getReasonLen, uint64(uint32(handle)))
}

func (g *guestABI) resultReasonByte(ctx context.Context, handle, index int32) (int32, error) {
	return call1(ctx, g.getReasonByte, uint64(uint32(handle)), uint64(uint32(index)))
}

func (g *guestABI) resultDrop(ctx context.Context, handle int32) error {
	_, err := g.drop.Call(ctx, uint64(uint32(handle)))
	return err
}
