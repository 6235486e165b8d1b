package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	"github.com/radieske/spin-wheel-settlement/internal/settlement-service/dto"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// caller lê a identidade do cabeçalho; sem ela responde 401
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (ledger.Address, bool) {
	c := r.Header.Get(CallerHeader)
	if c == "" {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthenticated", Message: CallerHeader + " header required"})
		return "", false
	}
	return ledger.Address(c), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "bad json")
		return false
	}
	return true
}

// decodeOptional aceita corpo vazio
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	badRequest(w, "bad json")
	return false
}

func roundRef(w http.ResponseWriter, r *http.Request, f dto.RoundRefFields) (settlement.RoundRef, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "round id must be an unsigned integer")
		return settlement.RoundRef{}, false
	}
	return settlement.RoundRef{
		ID:         id,
		Address:    ledger.Address(f.RoundAddress),
		PotAddress: ledger.Address(f.PotAddress),
		Currency:   ledger.Address(f.Currency),
	}, true
}

func escrowResponse(esc settlement.UserEscrow) dto.EscrowResponse {
	return dto.EscrowResponse{
		Owner:   esc.Owner.String(),
		Address: settlement.EscrowAddress(esc.Owner).String(),
		Balance: esc.Balance,
	}
}

// statusFor mapeia a categoria do erro de domínio para o status HTTP
func statusFor(k errs.Kind) int {
	switch k {
	case errs.KindAuthorization:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindPhase, errs.KindCapacity, errs.KindDoubleClaim:
		return http.StatusConflict
	case errs.KindArithmetic, errs.KindFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if de, ok := errs.As(err); ok {
		writeJSON(w, statusFor(de.Kind), dto.ErrorResponse{
			Error: de.Name, Code: de.Code, Kind: string(de.Kind), Message: err.Error(),
		})
		return
	}
	s.log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal", Message: "internal error"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad_request", Message: msg})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
