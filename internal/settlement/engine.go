package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// Tipos de evento emitidos após cada operação confirmada
const (
	EventCurrencyInitialized    = "currency_initialized"
	EventConfigInitialized      = "config_initialized"
	EventHouseFeeUpdated        = "house_fee_updated"
	EventHouseAddressUpdated    = "house_address_updated"
	EventDeposit                = "deposit"
	EventWithdraw               = "withdraw"
	EventRoundStarted           = "round_started"
	EventWagerPlaced            = "wager_placed"
	EventRoundFinalized         = "round_finalized"
	EventPayoutClaimed          = "payout_claimed"
	EventRewardPotCreated       = "reward_pot_created"
	EventRewardsMinted          = "rewards_minted"
	EventEntitlementsCalculated = "entitlements_calculated"
	EventRewardClaimed          = "reward_claimed"
	EventRewardFeesHarvested    = "reward_fees_harvested"
	EventRewardFeesWithdrawn    = "reward_fees_withdrawn"
)

// Event descreve uma mudança de estado já confirmada no ledger
type Event struct {
	ID      uuid.UUID      `json:"id"`
	Type    string         `json:"type"`
	Actor   ledger.Address `json:"actor"`
	Amount  uint64         `json:"amount,omitempty"`
	RoundID *uint64        `json:"round_id,omitempty"`
	Round   *Round         `json:"round,omitempty"`
	At      time.Time      `json:"at"`
}

// Notifier recebe os eventos depois do commit
// Falhas são logadas e não desfazem a operação
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Recorder recebe contadores por operação e volume movimentado
type Recorder interface {
	Operation(op, result string)
	Volume(movement string, amount uint64)
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, string) {}
func (nopRecorder) Volume(string, uint64)    {}

// DefaultPublishTimeout limita a publicação pós-commit de uma operação
const DefaultPublishTimeout = 2 * time.Second

type Options struct {
	Params         Params
	Logger         *zap.Logger
	Metrics        Recorder
	Notifier       Notifier
	PublishTimeout time.Duration
	Clock          func() time.Time
}

// Engine executa as operações de liquidação sobre um ledger.Store
// Cada operação roda numa única transação do store
type Engine struct {
	store          ledger.Store
	params         Params
	log            *zap.Logger
	metrics        Recorder
	notifier       Notifier
	publishTimeout time.Duration
	clock          func() time.Time
}

func NewEngine(store ledger.Store, opts Options) *Engine {
	e := &Engine{
		store:          store,
		params:         opts.Params,
		log:            opts.Logger,
		metrics:        opts.Metrics,
		notifier:       opts.Notifier,
		publishTimeout: opts.PublishTimeout,
		clock:          opts.Clock,
	}
	if e.params == (Params{}) {
		e.params = DefaultParams()
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.metrics == nil {
		e.metrics = nopRecorder{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.publishTimeout <= 0 {
		e.publishTimeout = DefaultPublishTimeout
	}
	return e
}

func (e *Engine) Params() Params { return e.params }

func (e *Engine) now() time.Time { return e.clock().UTC() }

type movement struct {
	name   string
	amount uint64
}

// opState acumula o que a operação produziu dentro da transação
type opState struct {
	events []Event
	moves  []movement
}

func (s *opState) emit(ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	s.events = append(s.events, ev)
}

func (s *opState) moved(name string, amount uint64) {
	s.moves = append(s.moves, movement{name, amount})
}

// exec roda fn numa transação, registra métricas e publica os eventos após o commit
func (e *Engine) exec(ctx context.Context, op string, caller ledger.Address, fn func(ctx context.Context, tx ledger.Tx, st *opState) error) error {
	st := &opState{}
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		st.events, st.moves = nil, nil
		return fn(ctx, tx, st)
	})
	if err != nil {
		result := "internal"
		if de, ok := errs.As(err); ok {
			result = de.Name
			e.log.Debug("operation rejected",
				zap.String("op", op),
				zap.String("caller", caller.String()),
				zap.Uint32("code", de.Code),
				zap.Error(err))
		} else {
			e.log.Error("operation failed", zap.String("op", op), zap.String("caller", caller.String()), zap.Error(err))
		}
		e.metrics.Operation(op, result)
		return err
	}

	e.metrics.Operation(op, "ok")
	for _, m := range st.moves {
		e.metrics.Volume(m.name, m.amount)
	}
	e.log.Info("operation committed", zap.String("op", op), zap.String("caller", caller.String()))

	if e.notifier == nil || len(st.events) == 0 {
		return nil
	}
	// a operação já foi confirmada: publica mesmo se o chamador desistir, mas com prazo
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	defer cancel()
	for _, ev := range st.events {
		if perr := e.notifier.Publish(pctx, ev); perr != nil {
			e.log.Warn("publish event", zap.String("type", ev.Type), zap.String("event_id", ev.ID.String()), zap.Error(perr))
		}
	}
	return nil
}

func (e *Engine) loadConfig(ctx context.Context, tx ledger.Tx) (GameConfig, error) {
	var cfg GameConfig
	if err := tx.Get(ctx, ConfigAddress(), &cfg); err != nil {
		if errs.Is(err, errs.AccountNotFound) {
			return GameConfig{}, errs.NotInitialized
		}
		return GameConfig{}, err
	}
	if !cfg.Initialized {
		return GameConfig{}, errs.NotInitialized
	}
	return cfg, nil
}

// authorize carrega a config e exige que caller seja a autoridade
func (e *Engine) authorize(ctx context.Context, tx ledger.Tx, caller ledger.Address) (GameConfig, error) {
	cfg, err := e.loadConfig(ctx, tx)
	if err != nil {
		return GameConfig{}, err
	}
	if caller != cfg.Authority {
		return GameConfig{}, errs.Wrap(errs.Unauthorized, "caller %s is not the authority", caller)
	}
	return cfg, nil
}

func (e *Engine) loadRound(ctx context.Context, tx ledger.Tx, ref RoundRef) (Round, error) {
	if err := ref.verify(); err != nil {
		return Round{}, err
	}
	var r Round
	if err := tx.Get(ctx, RoundAddress(ref.ID), &r); err != nil {
		return Round{}, err
	}
	return r, nil
}

func putRound(ctx context.Context, tx ledger.Tx, r Round) error {
	return tx.Put(ctx, RoundAddress(r.ID), ledger.KindRound, r)
}

func requirePhase(r Round, want Status) error {
	if r.Status != want {
		return errs.Wrap(errs.InvalidPhase, "round %d is %s, want %s", r.ID, r.Status, want)
	}
	return nil
}

func roundEvent(typ string, actor ledger.Address, amount uint64, r Round, at time.Time) Event {
	id := r.ID
	return Event{Type: typ, Actor: actor, Amount: amount, RoundID: &id, Round: &r, At: at}
}
