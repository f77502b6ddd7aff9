package redis

import "fmt"

// CheckoutRateKeyUser 按账号限流的键名。
func CheckoutRateKeyUser(userID uint) string {
	return fmt.Sprintf("flick_shop:rate:checkout:user:%d", userID)
}

// CheckoutRateKeyIP 未认证请求按 IP 限流的键名。
func CheckoutRateKeyIP(ip string) string {
	return fmt.Sprintf("flick_shop:rate:checkout:ip:%s", ip)
}
