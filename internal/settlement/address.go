package settlement

import (
	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// Tags de propósito dos registros endereçados por rodada
const (
	TagRound     = "round_state"
	TagVault     = "round_vault"
	TagRewardPot = "round_reward_pot"
)

const (
	tagConfig        = "game_config"
	tagEscrow        = "user_escrow"
	tagWallet        = "wallet"
	tagMintAuthority = "mint_authority"
)

// AddressOf é a derivação pública (tag, round_id) -> endereço
// Qualquer chamador recalcula sem consultar um diretório
func AddressOf(tag string, roundID uint64) ledger.Address {
	return ledger.Derive(tag, ledger.U64(roundID))
}

func ConfigAddress() ledger.Address { return ledger.Derive(tagConfig) }
func RoundAddress(id uint64) ledger.Address { return AddressOf(TagRound, id) }
func VaultAddress(id uint64) ledger.Address { return AddressOf(TagVault, id) }
func RewardPotAddress(id uint64) ledger.Address { return AddressOf(TagRewardPot, id) }
func EscrowAddress(owner ledger.Address) ledger.Address {
	return ledger.Derive(tagEscrow, []byte(owner))
}

// WalletAddress é a conta nativa externa de uma identidade (saques, taxa da casa)
func WalletAddress(owner ledger.Address) ledger.Address { return ledger.Derive(tagWallet, []byte(owner)) }

// MintAuthorityAddress é a identidade do motor como autoridade de emissão
func MintAuthorityAddress() ledger.Address { return ledger.Derive(tagMintAuthority) }

// RoundRef identifica uma rodada numa operação
// Address, PotAddress e Currency são opcionais; se vierem, têm de bater com os derivados
type RoundRef struct {
	ID         uint64         `json:"round_id"`
	Address    ledger.Address `json:"round_address,omitempty"`
	PotAddress ledger.Address `json:"pot_address,omitempty"`
	Currency   ledger.Address `json:"currency,omitempty"`
}

// Ref monta uma referência só com o id
func Ref(id uint64) RoundRef { return RoundRef{ID: id} }

func (r RoundRef) verify() error {
	if r.Address != "" && r.Address != RoundAddress(r.ID) {
		return errs.Wrap(errs.InvalidAddressDerivation, "round %d address %s", r.ID, r.Address)
	}
	if r.PotAddress != "" && r.PotAddress != RewardPotAddress(r.ID) {
		return errs.Wrap(errs.InvalidAddressDerivation, "round %d reward pot %s", r.ID, r.PotAddress)
	}
	return nil
}

func (r RoundRef) verifyCurrency(cfg GameConfig) error {
	if r.Currency != "" && r.Currency != cfg.RewardCurrency {
		return errs.Wrap(errs.InvalidProgramReference, "currency %s", r.Currency)
	}
	return nil
}
