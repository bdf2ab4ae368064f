package services

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var kindPrefixes = map[domain.TransactionKind]string{
	domain.KindCreditIncrease:          "In",
	domain.KindWithdrawalRequest:       "Out",
	domain.KindAccountToAccount:        "Transfer",
	domain.KindAccountToDepositInitial: "Transition",
	domain.KindProfitAccount:           "Profit",
	domain.KindProfitDepositToAccount:  "Profit",
}

func PrefixForKind(kind domain.TransactionKind) string {
	if prefix, ok := kindPrefixes[kind]; ok {
		return prefix
	}
	return "Txn"
}

// CodeGenerator builds the stem of a transaction code:
// {KindPrefix}-{UserShortID}-{JalaliYYYYMMDD}-. The repository appends the
// two-digit sequence inside the insert's transaction boundary, so concurrent
// creations for the same stem cannot collide.
type CodeGenerator struct {
	clock Clock
}

func NewCodeGenerator(clock Clock) *CodeGenerator {
	return &CodeGenerator{clock: clock}
}

func (g *CodeGenerator) Stem(kind domain.TransactionKind, userID string, issuedAt time.Time) string {
	if issuedAt.IsZero() {
		issuedAt = g.clock.Now()
	}
	jalali := ptime.New(issuedAt.In(ptime.Iran())).Format("yyyyMMdd")
	return fmt.Sprintf("%s-%s-%s-", PrefixForKind(kind), domain.ShortUserID(userID), jalali)
}
