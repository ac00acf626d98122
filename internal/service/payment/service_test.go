package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"consult_chat_server/internal/config"
	"consult_chat_server/pkg/errorx"
)

func signOrder(orderId, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderId))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := &paymentService{conf: &config.PaymentConfig{NotifySecret: "notify-secret"}}

	if !svc.verifySignature("P123", signOrder("P123", "notify-secret")) {
		t.Fatal("正确签名应通过验签")
	}
	if svc.verifySignature("P123", signOrder("P123", "wrong-secret")) {
		t.Fatal("密钥不符的签名应被拒绝")
	}
	if svc.verifySignature("P123", signOrder("P999", "notify-secret")) {
		t.Fatal("订单号不符的签名应被拒绝")
	}
	if svc.verifySignature("P123", "") {
		t.Fatal("空签名应被拒绝")
	}
}

func TestCreateCreditOrderRejectsNonPositive(t *testing.T) {
	svc := &paymentService{conf: &config.PaymentConfig{CreditPrice: 100}}
	if _, err := svc.CreateCreditOrder("u1", 0); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("0 额度应返回参数错误，实际 %v", err)
	}
	if _, err := svc.CreateCreditOrder("u1", -5); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("负额度应返回参数错误，实际 %v", err)
	}
}

func TestSandboxGatewayPayUrl(t *testing.T) {
	gw := NewSandboxGateway()
	url, err := gw.CreateOrder("P42", 9900, "注册费")
	if err != nil {
		t.Fatalf("沙箱网关下单失败: %v", err)
	}
	if url != "https://pay.example.com/checkout/P42" {
		t.Fatalf("收银台地址不符: %s", url)
	}
}
