package ton

import (
	"fmt"

	"github.com/xssnick/tonutils-go/address"
)

const (
	// наименьшая единица TON (1 TON = 10^9 наноTON)
	NanoTON = 1_000_000_000

	// минимальная сумма burn-инвойса в наноTON (0.1 TON)
	MinBurnAmountNano = 100_000_000
)

// TONToNano конвертирует TON в наноTON
func TONToNano(ton float64) int64 {
	return int64(ton * NanoTON)
}

// NanoToTON конвертирует наноTON в TON
func NanoToTON(nano int64) float64 {
	return float64(nano) / NanoTON
}

// ValidateAddress проверяет, что строка — корректный TON адрес
// (user-friendly EQ.../UQ... или raw 0:...)
func ValidateAddress(addr string) bool {
	if addr == "" {
		return false
	}
	if _, err := address.ParseAddr(addr); err == nil {
		return true
	}
	_, err := address.ParseRawAddr(addr)
	return err == nil
}

// TransferLink собирает ton://transfer ссылку на оплату инвойса.
// Кошельки Telegram открывают её напрямую из мини-аппы.
func TransferLink(wallet string, amountNano int64, comment string) string {
	return fmt.Sprintf("ton://transfer/%s?amount=%d&text=%s", wallet, amountNano, comment)
}
