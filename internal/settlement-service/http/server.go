package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	"github.com/radieske/spin-wheel-settlement/internal/settlement-service/dto"
	"github.com/radieske/spin-wheel-settlement/internal/settlement-service/publisher"
	"github.com/radieske/spin-wheel-settlement/internal/token"
	"github.com/radieske/spin-wheel-settlement/pkg/contracts/events"
)

// CallerHeader carrega a identidade já autenticada pelo relay que fica na frente do serviço
const CallerHeader = "X-Caller"

// Engine define as operações do motor usadas pelos handlers HTTP
type Engine interface {
	InitializeRewardCurrency(ctx context.Context, caller ledger.Address, req settlement.CurrencyRequest) (token.Mint, error)
	InitializeConfig(ctx context.Context, caller ledger.Address, req settlement.InitConfigRequest) (settlement.GameConfig, error)
	UpdateHouseFee(ctx context.Context, caller ledger.Address, bps uint16) (settlement.GameConfig, error)
	UpdateHouseAddress(ctx context.Context, caller, house ledger.Address) (settlement.GameConfig, error)
	Deposit(ctx context.Context, caller ledger.Address, amount uint64) (settlement.UserEscrow, error)
	Withdraw(ctx context.Context, caller ledger.Address, amount uint64) (settlement.UserEscrow, error)
	StartRound(ctx context.Context, caller ledger.Address, req settlement.StartRoundRequest) (settlement.Round, error)
	PlaceWager(ctx context.Context, caller ledger.Address, ref settlement.RoundRef, amount uint64) (settlement.Round, error)
	FinalizeRound(ctx context.Context, caller ledger.Address, ref settlement.RoundRef, revealed settlement.Seed) (settlement.Round, error)
	ClaimPayout(ctx context.Context, caller ledger.Address, ref settlement.RoundRef) (settlement.Round, error)
	CreateRewardPot(ctx context.Context, caller ledger.Address, ref settlement.RoundRef) (settlement.RewardPot, error)
	MintRewards(ctx context.Context, caller ledger.Address, ref settlement.RoundRef) (settlement.RewardPot, error)
	CalculateEntitlements(ctx context.Context, caller ledger.Address, ref settlement.RoundRef) (settlement.Round, error)
	ClaimReward(ctx context.Context, caller ledger.Address, ref settlement.RoundRef) (settlement.RewardClaim, error)
	HarvestRewardFees(ctx context.Context, caller ledger.Address, owners []ledger.Address) (uint64, error)
	WithdrawRewardFees(ctx context.Context, caller ledger.Address) (uint64, error)

	Config(ctx context.Context) (settlement.GameConfig, error)
	Escrow(ctx context.Context, owner ledger.Address) (settlement.UserEscrow, error)
	Round(ctx context.Context, ref settlement.RoundRef) (settlement.Round, error)
	RewardPot(ctx context.Context, ref settlement.RoundRef) (settlement.RewardPot, error)
	RewardBalance(ctx context.Context, owner ledger.Address) (token.Account, error)
	Entries(ctx context.Context, addr ledger.Address) ([]ledger.Entry, error)
}

// SnapshotCache é o cache de leitura das rodadas; opcional
type SnapshotCache interface {
	Get(ctx context.Context, roundID uint64) (events.RoundSnapshot, error)
}

// Server expõe as operações de liquidação por HTTP
type Server struct {
	log    *zap.Logger
	engine Engine
	cache  SnapshotCache
}

// NewServer instancia o servidor HTTP; cache pode ser nil
func NewServer(log *zap.Logger, engine Engine, cache SnapshotCache) *Server {
	return &Server{log: log, engine: engine, cache: cache}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /currency/initialize", s.initCurrency)
	mux.HandleFunc("POST /currency/harvest", s.harvest)
	mux.HandleFunc("POST /currency/withdraw-fees", s.withdrawFees)
	mux.HandleFunc("GET /currency/balance", s.rewardBalance) // ?owner=...

	mux.HandleFunc("POST /config/initialize", s.initConfig)
	mux.HandleFunc("POST /config/house-fee", s.houseFee)
	mux.HandleFunc("POST /config/house-address", s.houseAddress)
	mux.HandleFunc("GET /config", s.getConfig)

	mux.HandleFunc("POST /escrow/deposit", s.deposit)
	mux.HandleFunc("POST /escrow/withdraw", s.withdraw)
	mux.HandleFunc("GET /escrow", s.getEscrow) // ?owner=...
	mux.HandleFunc("GET /entries", s.entries)  // ?address=...

	mux.HandleFunc("POST /rounds/start", s.startRound)
	mux.HandleFunc("GET /rounds/{id}", s.getRound)
	mux.HandleFunc("GET /rounds/{id}/snapshot", s.getSnapshot)
	mux.HandleFunc("GET /rounds/{id}/reward-pot", s.getRewardPot)
	mux.HandleFunc("POST /rounds/{id}/wager", s.wager)
	mux.HandleFunc("POST /rounds/{id}/finalize", s.finalize)
	mux.HandleFunc("POST /rounds/{id}/claim-payout", s.roundOp(s.engine.ClaimPayout))
	mux.HandleFunc("POST /rounds/{id}/reward-pot", s.createRewardPot)
	mux.HandleFunc("POST /rounds/{id}/mint", s.mintRewards)
	mux.HandleFunc("POST /rounds/{id}/entitlements", s.roundOp(s.engine.CalculateEntitlements))
	mux.HandleFunc("POST /rounds/{id}/claim-reward", s.claimReward)

	mux.HandleFunc("GET /address", s.address) // ?tag=...&round=...
	return mux
}

func (s *Server) initCurrency(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.InitCurrencyRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.engine.InitializeRewardCurrency(r.Context(), caller, settlement.CurrencyRequest{
		ID: req.ID, Decimals: req.Decimals, TransferFeeBps: req.TransferFeeBps, MaximumFee: req.MaximumFee,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) harvest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.HarvestRequest
	if !decode(w, r, &req) {
		return
	}
	owners := make([]ledger.Address, 0, len(req.Owners))
	for _, o := range req.Owners {
		owners = append(owners, ledger.Address(o))
	}
	n, err := s.engine.HarvestRewardFees(r.Context(), caller, owners)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AmountResponse{Amount: n})
}

func (s *Server) withdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	n, err := s.engine.WithdrawRewardFees(r.Context(), caller)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AmountResponse{Amount: n})
}

func (s *Server) rewardBalance(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		badRequest(w, "owner required")
		return
	}
	acc, err := s.engine.RewardBalance(r.Context(), ledger.Address(owner))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) initConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.InitConfigRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := s.engine.InitializeConfig(r.Context(), caller, settlement.InitConfigRequest{
		HouseAddress:     ledger.Address(req.HouseAddress),
		WagerFeeBps:      req.WagerFeeBps,
		RewardCurrencyID: req.RewardCurrencyID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) houseFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.HouseFeeRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := s.engine.UpdateHouseFee(r.Context(), caller, req.WagerFeeBps)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) houseAddress(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.HouseAddressRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := s.engine.UpdateHouseAddress(r.Context(), caller, ledger.Address(req.HouseAddress))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.Config(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.AmountRequest
	if !decode(w, r, &req) {
		return
	}
	esc, err := s.engine.Deposit(r.Context(), caller, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, escrowResponse(esc))
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.AmountRequest
	if !decode(w, r, &req) {
		return
	}
	esc, err := s.engine.Withdraw(r.Context(), caller, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, escrowResponse(esc))
}

func (s *Server) getEscrow(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		badRequest(w, "owner required")
		return
	}
	esc, err := s.engine.Escrow(r.Context(), ledger.Address(owner))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, escrowResponse(esc))
}

func (s *Server) entries(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		badRequest(w, "address required")
		return
	}
	out, err := s.engine.Entries(r.Context(), ledger.Address(addr))
	if err != nil {
		s.fail(w, err)
		return
	}
	if out == nil {
		out = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) startRound(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.StartRoundRequest
	if !decode(w, r, &req) {
		return
	}
	commitment, err := settlement.ParseSeed(req.SeedCommitment)
	if err != nil {
		badRequest(w, "seed_commitment: "+err.Error())
		return
	}
	round, err := s.engine.StartRound(r.Context(), caller, settlement.StartRoundRequest{
		SeedCommitment: commitment,
		Duration:       time.Duration(req.DurationSeconds) * time.Second,
		RoundID:        req.RoundID,
		Capacity:       req.Capacity,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, publisher.ToSnapshot(round))
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	ref, ok := roundRef(w, r, dto.RoundRefFields{})
	if !ok {
		return
	}
	round, err := s.engine.Round(r.Context(), ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// getSnapshot lê do cache e cai para o ledger quando não há snapshot
func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	ref, ok := roundRef(w, r, dto.RoundRefFields{})
	if !ok {
		return
	}
	if s.cache != nil {
		snap, err := s.cache.Get(r.Context(), ref.ID)
		if err == nil {
			writeJSON(w, http.StatusOK, snap)
			return
		}
		if !errors.Is(err, publisher.ErrSnapshotMiss) {
			s.log.Warn("snapshot cache", zap.Uint64("round_id", ref.ID), zap.Error(err))
		}
	}
	round, err := s.engine.Round(r.Context(), ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publisher.ToSnapshot(round))
}

func (s *Server) getRewardPot(w http.ResponseWriter, r *http.Request) {
	ref, ok := roundRef(w, r, dto.RoundRefFields{})
	if !ok {
		return
	}
	pot, err := s.engine.RewardPot(r.Context(), ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pot)
}

func (s *Server) wager(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.WagerRequest
	if !decode(w, r, &req) {
		return
	}
	ref, ok := roundRef(w, r, req.RoundRefFields)
	if !ok {
		return
	}
	round, err := s.engine.PlaceWager(r.Context(), caller, ref, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publisher.ToSnapshot(round))
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req dto.FinalizeRequest
	if !decode(w, r, &req) {
		return
	}
	ref, ok := roundRef(w, r, req.RoundRefFields)
	if !ok {
		return
	}
	seed, err := settlement.ParseSeed(req.RevealedSeed)
	if err != nil {
		badRequest(w, "revealed_seed: "+err.Error())
		return
	}
	round, err := s.engine.FinalizeRound(r.Context(), caller, ref, seed)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publisher.ToSnapshot(round))
}

// roundOp adapta operações (caller, rodada) -> Round sem corpo obrigatório
func (s *Server) roundOp(op func(context.Context, ledger.Address, settlement.RoundRef) (settlement.Round, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.caller(w, r)
		if !ok {
			return
		}
		var fields dto.RoundRefFields
		if !decodeOptional(w, r, &fields) {
			return
		}
		ref, ok := roundRef(w, r, fields)
		if !ok {
			return
		}
		round, err := op(r.Context(), caller, ref)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, publisher.ToSnapshot(round))
	}
}

func (s *Server) createRewardPot(w http.ResponseWriter, r *http.Request) {
	s.potOp(w, r, s.engine.CreateRewardPot)
}

func (s *Server) mintRewards(w http.ResponseWriter, r *http.Request) {
	s.potOp(w, r, s.engine.MintRewards)
}

func (s *Server) potOp(w http.ResponseWriter, r *http.Request, op func(context.Context, ledger.Address, settlement.RoundRef) (settlement.RewardPot, error)) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var fields dto.RoundRefFields
	if !decodeOptional(w, r, &fields) {
		return
	}
	ref, ok := roundRef(w, r, fields)
	if !ok {
		return
	}
	pot, err := op(r.Context(), caller, ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pot)
}

func (s *Server) claimReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var fields dto.RoundRefFields
	if !decodeOptional(w, r, &fields) {
		return
	}
	ref, ok := roundRef(w, r, fields)
	if !ok {
		return
	}
	claim, err := s.engine.ClaimReward(r.Context(), caller, ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// address expõe a derivação (tag, round_id) para clientes externos
func (s *Server) address(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag := q.Get("tag")
	switch tag {
	case settlement.TagRound, settlement.TagVault, settlement.TagRewardPot:
	default:
		badRequest(w, "unknown tag")
		return
	}
	id, err := strconv.ParseUint(q.Get("round"), 10, 64)
	if err != nil {
		badRequest(w, "round must be an unsigned integer")
		return
	}
	writeJSON(w, http.StatusOK, dto.AddressResponse{Tag: tag, RoundID: id, Address: settlement.AddressOf(tag, id).String()})
}
