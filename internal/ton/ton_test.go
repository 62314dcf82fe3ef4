package ton

import (
	"strings"
	"testing"
)

// raw-форма адреса не зависит от контрольной суммы base64-представления
const rawZeroAddr = "0:0000000000000000000000000000000000000000000000000000000000000000"

func TestValidateAddress(t *testing.T) {
	if !ValidateAddress(rawZeroAddr) {
		t.Fatalf("raw адрес должен быть валиден")
	}
	if ValidateAddress("") {
		t.Fatalf("пустой адрес должен быть невалиден")
	}
	if ValidateAddress("not-an-address") {
		t.Fatalf("мусор должен быть невалиден")
	}
}

func TestTransferLink(t *testing.T) {
	link := TransferLink(rawZeroAddr, 500_000_000, "burn_abc")
	if !strings.HasPrefix(link, "ton://transfer/"+rawZeroAddr) {
		t.Fatalf("неожиданная ссылка: %s", link)
	}
	if !strings.Contains(link, "amount=500000000") || !strings.Contains(link, "text=burn_abc") {
		t.Fatalf("в ссылке нет суммы или комментария: %s", link)
	}
}

func TestNanoConversion(t *testing.T) {
	if TONToNano(0.5) != 500_000_000 {
		t.Fatalf("0.5 TON = %d наноTON", TONToNano(0.5))
	}
	if NanoToTON(1_500_000_000) != 1.5 {
		t.Fatalf("1.5 TON = %f", NanoToTON(1_500_000_000))
	}
}
