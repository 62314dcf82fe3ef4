package service

import (
	"testing"

	"order_of_ash/internal/domain"
)

func TestJWT_ExplicitSecretRoundtrip(t *testing.T) {
	// секрет приходит из конфигурации, окружение напрямую не читается
	InitJWT("secret-from-config")

	token, err := MintToken(42, "ash")
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	tgID, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if tgID != 42 {
		t.Fatalf("ожидался tg_id=42, получен %d", tgID)
	}

	// токен, подписанный другим секретом, отклоняется как auth-ошибка
	InitJWT("another-secret")
	if _, err := ParseToken(token); !domain.IsKind(err, domain.KindAuth) {
		t.Fatalf("смена секрета должна давать auth-ошибку, получено %v", err)
	}
}

func TestJWT_EmptySecretFallsBack(t *testing.T) {
	InitJWT("")

	token, err := MintToken(7, "p")
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if _, err := ParseToken(token); err != nil {
		t.Fatalf("dev-фолбэк должен подписывать и проверять: %v", err)
	}
}
