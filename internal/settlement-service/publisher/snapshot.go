package publisher

import (
	"strconv"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	"github.com/radieske/spin-wheel-settlement/pkg/contracts/events"
)

// ToSnapshot converte a rodada para o contrato público de leitura
func ToSnapshot(r settlement.Round) events.RoundSnapshot {
	s := events.RoundSnapshot{
		RoundID:           r.ID,
		Address:           settlement.RoundAddress(r.ID).String(),
		Status:            r.Status.String(),
		StatusCode:        uint8(r.Status),
		SeedCommitment:    r.SeedCommitment.String(),
		StartUnixMs:       r.StartTime.UnixMilli(),
		EndUnixMs:         r.EndTime.UnixMilli(),
		TotalWagerPot:     r.TotalWagerPot,
		Capacity:          r.Capacity,
		Participants:      make([]events.Participant, 0, len(r.Participants)),
		WinnerAddress:     r.WinnerAddress.String(),
		WinnerAmount:      r.WinnerAmount,
		WinnerClaimed:     r.WinnerClaimed,
		HouseFeeAmount:    r.HouseFeeAmount,
		TotalRewardMinted: r.TotalRewardMinted,
	}
	if r.RevealedSeed != nil {
		s.RevealedSeed = r.RevealedSeed.String()
	}
	for i, p := range r.Participants {
		ep := events.Participant{Address: p.Address.String(), Amount: p.Amount}
		// entradas de recompensa são paralelas aos participantes
		if i < len(r.RewardEntries) && r.RewardEntries[i].Address == p.Address {
			ep.Entitlement = r.RewardEntries[i].Entitlement
			ep.Claimed = r.RewardEntries[i].Claimed
		}
		s.Participants = append(s.Participants, ep)
	}
	return s
}

// ToEvent converte o evento do motor para o contrato publicado no Kafka
func ToEvent(ev settlement.Event) events.SettlementEvent {
	out := events.SettlementEvent{
		EventID:  ev.ID.String(),
		Type:     ev.Type,
		Actor:    ev.Actor.String(),
		Amount:   ev.Amount,
		RoundID:  ev.RoundID,
		TsUnixMs: ev.At.UnixMilli(),
	}
	if ev.Round != nil {
		snap := ToSnapshot(*ev.Round)
		out.Round = &snap
	}
	return out
}

// eventKey agrupa os eventos de uma rodada na mesma partição
func eventKey(ev settlement.Event) string {
	if ev.RoundID != nil {
		return "round:" + strconv.FormatUint(*ev.RoundID, 10)
	}
	return "actor:" + ev.Actor.String()
}
