package sheet

import (
	"context"
	"fmt"
	"sort"

	ristretto "github.com/dgraph-io/ristretto/v2"
	"github.com/on-the-ground/effect_ive_sheet/effects"
	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	"github.com/on-the-ground/effect_ive_sheet/effects/log"
	"github.com/on-the-ground/effect_ive_sheet/expr"
	"github.com/on-the-ground/effect_ive_sheet/shared/helper"
	"github.com/on-the-ground/effect_ive_sheet/table"
	"go.uber.org/multierr"
)

// WithEffectHandler registers a sheet: a single worker that exclusively owns tables and the
// named expressions evaluated over them.
//
// Every expression is initialised against tables first; if any fails, the error names each
// failing expression and nothing is registered. Afterwards tables and expressions must only be
// touched through the sheet effect.
//
// The returned teardown closes the handler, then the change feed, and gives back the context
// passed in here.
func WithEffectHandler(
	ctx context.Context,
	config Config,
	tables table.TableSet,
	exprs map[string]expr.PersistentExpression,
) (context.Context, func() context.Context, error) {
	config = config.normalize()

	sh, err := newSheetHandler(ctx, config, tables, exprs)
	if err != nil {
		log.Effect(ctx, log.LogError, "failed to initialise sheet", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx, func() context.Context { return ctx }, err
	}

	ctx, teardown := effects.WithResumableEffectHandler(
		ctx,
		config.BufferSize,
		effectmodel.EffectSheet,
		sh.handle,
		func() {
			sh.cache.Close()
			close(sh.sink)
		},
	)
	return ctx, teardown, nil
}

// EffectSetCell writes value to tableName(x, y) and returns the changes it caused, ordered by
// expression name. Writing outside the table is ignored and returns no changes.
func EffectSetCell(ctx context.Context, tableName string, x, y, value int) ([]Change, error) {
	return helper.GetTypedValueOf[[]Change](func() (any, error) {
		return effect(ctx, SetCell{Table: tableName, X: x, Y: y, Value: value})
	})
}

func EffectLoadState(ctx context.Context, name string) (int, error) {
	return helper.GetTypedValueOf[int](func() (any, error) {
		return effect(ctx, LoadState{Name: name})
	})
}

func EffectLoadCell(ctx context.Context, tableName string, x, y int) (int, error) {
	return helper.GetTypedValueOf[int](func() (any, error) {
		return effect(ctx, LoadCell{Table: tableName, X: x, Y: y})
	})
}

// EffectQuery evaluates e against the sheet's current tables. Results are cached until the next write.
func EffectQuery(ctx context.Context, e expr.Expression) (int, error) {
	return helper.GetTypedValueOf[int](func() (any, error) {
		return effect(ctx, Query{Expression: e})
	})
}

// EffectSource returns the change feed. It is closed when the sheet is torn down.
func EffectSource(ctx context.Context) (<-chan Change, error) {
	return helper.GetTypedValueOf[<-chan Change](func() (any, error) {
		return effect(ctx, Source{})
	})
}

func effect(ctx context.Context, payload Payload) (any, error) {
	if !effects.HasHandler(ctx, effectmodel.EffectSheet) {
		return nil, fmt.Errorf("%w: sheet", effects.ErrNoEffectHandler)
	}
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectSheet, payload)
}

type tracked interface {
	expr.Incremental
	fmt.Stringer
}

type namedExpression struct {
	name string
	expr tracked
}

// sheetHandler is only ever used from the handler's single worker.
type sheetHandler struct {
	// logCtx is the registration context; the worker's own context is already cancelled
	// while buffered operations are drained on teardown.
	logCtx context.Context
	tables table.TableSet
	exprs  []namedExpression
	byName map[string]tracked
	cache  *ristretto.Cache[string, int]
	sink   chan Change
}

func newSheetHandler(
	ctx context.Context,
	config Config,
	tables table.TableSet,
	exprs map[string]expr.PersistentExpression,
) (*sheetHandler, error) {
	if tables == nil {
		tables = table.NewTableSet()
	}
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	sh := &sheetHandler{
		logCtx: ctx,
		tables: tables,
		exprs:  make([]namedExpression, 0, len(names)),
		byName: make(map[string]tracked, len(names)),
	}

	var errs error
	for _, name := range names {
		if exprs[name] == nil {
			errs = multierr.Append(errs, fmt.Errorf("expression %q: nil", name))
			continue
		}
		var e tracked = exprs[name]
		if config.Indexed {
			ix, err := expr.NewIndexed(exprs[name])
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("expression %q: %w", name, err))
				continue
			}
			e = ix
		}
		if err := e.Init(tables); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expression %q: %w", name, err))
			continue
		}
		sh.exprs = append(sh.exprs, namedExpression{name: name, expr: e})
		sh.byName[name] = e
	}
	if errs != nil {
		return nil, errs
	}

	// every result costs 1, so MaxCost counts results
	cache, err := ristretto.NewCache(&ristretto.Config[string, int]{
		NumCounters:        int64(10 * config.QueryCacheSize),
		MaxCost:            int64(config.QueryCacheSize),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	sh.cache = cache
	sh.sink = make(chan Change, config.FeedSize)
	return sh, nil
}

func (sh *sheetHandler) handle(ctx context.Context, payload Payload) (any, error) {
	switch payload := payload.(type) {
	case SetCell:
		return sh.setCell(payload)

	case LoadState:
		e, ok := sh.byName[payload.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoSuchExpression, payload.Name)
		}
		return e.State(), nil

	case LoadCell:
		return sh.tables.Lookup(payload.Table, payload.X, payload.Y)

	case Query:
		return sh.query(payload.Expression)

	case Source:
		return (<-chan Change)(sh.sink), nil

	default:
		// Payload is sealed, so this is a bug
		panic(fmt.Sprintf("exhaustive match fallback, sheet payload type: %T", payload))
	}
}

func (sh *sheetHandler) setCell(payload SetCell) ([]Change, error) {
	t, ok := sh.tables[payload.Table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", table.ErrNoSuchTable, payload.Table)
	}
	if _, ok := t.Get(payload.X, payload.Y); !ok {
		log.Effect(sh.logCtx, log.LogWarn, "write outside table ignored", map[string]interface{}{
			"table": payload.Table,
			"x":     payload.X,
			"y":     payload.Y,
		})
		return nil, nil
	}

	t.Set(payload.X, payload.Y, payload.Value)
	sh.cache.Clear()

	ev := expr.SetValue{Table: payload.Table, X: payload.X, Y: payload.Y, Value: payload.Value}
	span := now()
	var changes []Change
	for _, ne := range sh.exprs {
		old := ne.expr.State()
		if !ne.expr.Apply(ev) {
			continue
		}
		change := Change{
			Expression: ne.name,
			Old:        old,
			New:        ne.expr.State(),
			Event:      ev,
			TimeSpan:   span,
		}
		changes = append(changes, change)
		sh.publish(change)
	}

	log.Effect(sh.logCtx, log.LogDebug, "cell set", map[string]interface{}{
		"event":   ev.String(),
		"changes": len(changes),
	})
	return changes, nil
}

// publish never blocks the worker: a full feed drops the change.
func (sh *sheetHandler) publish(change Change) {
	select {
	case sh.sink <- change:
	default:
		log.Effect(sh.logCtx, log.LogWarn, "change feed full, change dropped", map[string]interface{}{
			"change": change.String(),
		})
	}
}

func (sh *sheetHandler) query(e expr.Expression) (int, error) {
	if e == nil {
		return 0, fmt.Errorf("query: nil expression")
	}
	key := e.String()
	if v, ok := sh.cache.Get(key); ok {
		return v, nil
	}
	v, err := e.Eval(sh.tables)
	if err != nil {
		return 0, err
	}
	sh.cache.Set(key, v, 1)
	return v, nil
}
