// Package sandbox hosts the trusted support runtime and the two
// untrusted competitor modules inside an isolated WebAssembly VM, and
// runs games against it. Each Instance owns a private wazero runtime
// and must not be shared across goroutines.
package sandbox

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

//go:embed runtime.wasm
var runtimeWasm []byte

// Options configures a boundary instance.
type Options struct {
	// GameTimeout bounds a single run invocation. Zero means
	// unbounded, matching the guest's own semantics. When set, the
	// runtime is built to abort guest execution on context deadline.
	GameTimeout time.Duration
}

// Instance is one isolation boundary: a VM store, its linear memory,
// and both competitor buffers, loaded once and reused for every game
// this instance runs.
type Instance struct {
	runtime wazero.Runtime
	module  api.Module
	abi     callABI

	redPtr, redLen   uint32
	bluePtr, blueLen uint32

	gameTimeout time.Duration
}

// New compiles and instantiates the embedded support runtime, resolves
// its exports, and copies both competitor modules into guest memory.
// Any failure here is setup-fatal: the process cannot run games.
func New(ctx context.Context, opts Options, red, blue []byte) (*Instance, error) {
	cfg := wazero.NewRuntimeConfig()
	if opts.GameTimeout > 0 {
		cfg = cfg.WithCloseOnContextDone(true)
	}
	r := wazero.NewRuntimeWithConfig(ctx, cfg)

	mod, err := r.Instantiate(ctx, runtimeWasm)
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("instantiate support runtime: %w", err)
	}

	inst := &Instance{
		runtime:     r,
		module:      mod,
		gameTimeout: opts.GameTimeout,
	}

	var missing error
	resolve := func(name string) api.Function {
		fn := mod.ExportedFunction(name)
		if fn == nil && missing == nil {
			missing = fmt.Errorf("%w: %s", ErrMissingExport, name)
		}
		return fn
	}
	allocate := resolve("allocate")
	inst.abi = &guestABI{
		runGame:       resolve("run"),
		getWinner:     resolve("result_get_winner"),
		getTicks:      resolve("result_get_ticks"),
		getCycles:     resolve("result_get_cycles"),
		getReasonLen:  resolve("result_get_reason_len"),
		getReasonByte: resolve("result_get_reason_byte"),
		drop:          resolve("result_drop"),
	}
	if missing != nil {
		r.Close(ctx)
		return nil, missing
	}

	if inst.redPtr, err = inst.loadCompetitor(ctx, allocate, red); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("load RED module: %w", err)
	}
	inst.redLen = uint32(len(red))
	if inst.bluePtr, err = inst.loadCompetitor(ctx, allocate, blue); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("load BLUE module: %w", err)
	}
	inst.blueLen = uint32(len(blue))

	return inst, nil
}

// loadCompetitor allocates a guest buffer and copies one competitor's
// raw module bytes into it. The buffer lives for the instance's whole
// lifetime; games reference it by (offset, length).
func (in *Instance) loadCompetitor(ctx context.Context, allocate api.Function, wasm []byte) (uint32, error) {
	off, err := call1(ctx, allocate, uint64(uint32(len(wasm))))
	if err != nil {
		return 0, fmt.Errorf("allocate %d bytes: %w", len(wasm), err)
	}
	if !in.module.Memory().Write(uint32(off), wasm) {
		return 0, ErrMemoryWrite
	}
	return uint32(off), nil
}

// RunGame runs one complete game under the given seed and extracts the
// structured result. The call blocks for the full duration of the
// simulated game. The result handle is released exactly once, on every
// path that produced one.
func (in *Instance) RunGame(ctx context.Context, seed uint32) (GameResult, error) {
	if in.gameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.gameTimeout)
		defer cancel()
	}

	handle, err := in.abi.run(ctx, in.redPtr, in.redLen, in.bluePtr, in.blueLen, seed)
	if err != nil {
		return GameResult{}, fmt.Errorf("run game (seed %d): %w", seed, err)
	}

	res, err := in.extract(ctx, handle)
	if dropErr := in.abi.resultDrop(ctx, handle); dropErr != nil && err == nil {
		err = fmt.Errorf("release result: %w", dropErr)
	}
	if err != nil {
		return GameResult{}, err
	}
	return res, nil
}

// extract reads all result fields. The caller releases the handle.
func (in *Instance) extract(ctx context.Context, handle int32) (GameResult, error) {
	code, err := in.abi.resultWinner(ctx, handle)
	if err != nil {
		return GameResult{}, fmt.Errorf("read winner: %w", err)
	}

	var winner Winner
	switch code {
	case codeRedWins:
		winner = WinnerRed
	case codeBlueWins:
		winner = WinnerBlue
	case codeTie:
		winner = WinnerTie
	case codeRedInvalid:
		return GameResult{}, &InvalidCompetitorError{Side: SideRed}
	case codeBlueInvalid:
		return GameResult{}, &InvalidCompetitorError{Side: SideBlue}
	default:
		return GameResult{}, fmt.Errorf("unknown winner code %d", code)
	}

	ticks, err := in.abi.resultTicks(ctx, handle)
	if err != nil {
		return GameResult{}, fmt.Errorf("read ticks: %w", err)
	}
	cycles, err := in.abi.resultCycles(ctx, handle)
	if err != nil {
		return GameResult{}, fmt.Errorf("read cycles: %w", err)
	}
	reason, err := in.readReason(ctx, handle)
	if err != nil {
		return GameResult{}, fmt.Errorf("read lose reason: %w", err)
	}

	return GameResult{
		Winner:     winner,
		Tick:       uint32(ticks),
		Cycle:      uint32(cycles),
		LoseReason: reason,
	}, nil
}

// readReason reconstructs the lose-reason string. The guest only
// exposes a per-byte accessor, so this is the bulk-read seam: callers
// see "read the reason", not N round trips. Invalid UTF-8 is replaced,
// never surfaced as an error.
func (in *Instance) readReason(ctx context.Context, handle int32) (string, error) {
	n, err := in.abi.resultReasonLen(ctx, handle)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, n)
	for i := int32(0); i < n; i++ {
		b, err := in.abi.resultReasonByte(ctx, handle, i)
		if err != nil {
			return "", err
		}
		buf = append(buf, byte(b))
	}
	return strings.ToValidUTF8(string(buf), "�"), nil
}

// Close tears down the VM and everything it owns.
func (in *Instance) Close(ctx context.Context) error {
	return in.runtime.Close(ctx)
}
