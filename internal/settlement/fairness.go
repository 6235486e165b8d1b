package settlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"math/bits"

	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

const bpsDenominator = 10_000

// Commitment é o sha256 do segredo, publicado antes das apostas
func Commitment(seed Seed) Seed { return sha256.Sum256(seed[:]) }

// VerifyReveal confere o segredo revelado contra o compromisso
func VerifyReveal(commitment, revealed Seed) bool {
	c := Commitment(revealed)
	return subtle.ConstantTimeCompare(c[:], commitment[:]) == 1
}

// RandomValue deriva o valor pseudoaleatório da rodada
// HMAC-SHA256(chave=seed, msg="round:"||be64(id)), primeiros 8 bytes em big-endian
// O id da rodada entra na mensagem para a mesma seed não servir em outra rodada
func RandomValue(seed Seed, roundID uint64) uint64 {
	mac := hmac.New(sha256.New, seed[:])
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], roundID)
	mac.Write([]byte("round:"))
	mac.Write(id[:])
	return binary.BigEndian.Uint64(mac.Sum(nil)[:8])
}

// SelectWinner reduz o valor aleatório ao pote e percorre os participantes acumulando
// O vencedor é o primeiro índice cuja soma acumulada passa do valor reduzido
func SelectWinner(seed Seed, roundID uint64, participants []Participant) (int, error) {
	var total uint64
	for _, p := range participants {
		var carry uint64
		total, carry = bits.Add64(total, p.Amount, 0)
		if carry != 0 {
			return 0, errs.ArithmeticOverflow
		}
	}
	if total == 0 {
		return 0, errs.NoParticipants
	}

	target := RandomValue(seed, roundID) % total
	var cum uint64
	for i, p := range participants {
		cum += p.Amount
		if target < cum {
			return i, nil
		}
	}
	return 0, errs.ArithmeticOverflow
}

// HouseFee divide o pote: fee = floor(pot*bps/10000), vencedor fica com o resto
// capBps é o teto configurado; teto zero com bps > 0 é configuração degenerada
func HouseFee(pot uint64, bps, capBps uint16) (fee, winner uint64, err error) {
	if err := validateWagerFee(bps, capBps); err != nil {
		return 0, 0, err
	}
	hi, lo := bits.Mul64(pot, uint64(bps))
	fee, _ = bits.Div64(hi, lo, bpsDenominator)
	return fee, pot - fee, nil
}

func validateWagerFee(bps, capBps uint16) error {
	if bps > 0 && capBps == 0 {
		return errs.Wrap(errs.FeeCalculationFailed, "fee %d bps with zero cap", bps)
	}
	if bps > capBps || bps > bpsDenominator {
		return errs.Wrap(errs.InvalidFeeConfig, "fee %d bps above cap %d", bps, capBps)
	}
	return nil
}

// Entitlement calcula floor(amount*minted/pot); pote zero dá zero
func Entitlement(amount, minted, pot uint64) (uint64, error) {
	if pot == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(amount, minted)
	if hi >= pot {
		return 0, errs.ArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, pot)
	return q, nil
}
