package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func SendEmail(to, subject, htmlBody string) error {
	config := GetEmailConfig()
	if config.Host == "" || config.Port == "" || config.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		config.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	addr := config.Host + ":" + config.Port
	return smtp.SendMail(addr, auth, config.From, []string{to}, msg)
}

func SendWelcomeEmail(email, name string) {
	go func() {
		subject := "Welcome to Mercato!"
		body := fmt.Sprintf(`<h2>Welcome to Mercato, %s!</h2>
<p>Thank you for creating your account. You can now:</p>
<ul>
<li>Order from local restaurants and shops</li>
<li>Earn loyalty points on every order</li>
<li>Follow your order from kitchen to doorstep</li>
</ul>
<p>Happy ordering!</p>
<p>The Mercato Team</p>`, strings.Split(name, " ")[0])
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", email, err)
		}
	}()
}

func SendOrderConfirmation(email, name, orderNumber string, total float64) {
	go func() {
		subject := fmt.Sprintf("Order %s confirmed", orderNumber)
		body := fmt.Sprintf(`<h2>Thanks for your order, %s!</h2>
<p>Your order <strong>%s</strong> has been received and sent to the store.</p>
<p>Order total: <strong>£%.2f</strong></p>
<p>We'll email you as the store works on it.</p>
<p>The Mercato Team</p>`, strings.Split(name, " ")[0], orderNumber, total)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send order confirmation to %s: %v", email, err)
		}
	}()
}

func SendOrderStatusUpdate(email, name, orderNumber, status string) {
	go func() {
		statusText := strings.ReplaceAll(status, "_", " ")
		subject := fmt.Sprintf("Order %s is now %s", orderNumber, statusText)
		body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>
<p>The Mercato Team</p>`, strings.Split(name, " ")[0], orderNumber, statusText)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send status update to %s: %v", email, err)
		}
	}()
}

func SendPasswordResetEmail(email, name, resetURL string) {
	go func() {
		subject := "Reset your Mercato password"
		body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href="%s">Reset password</a></p>
<p>This link expires in one hour. If you didn't request a reset, you can ignore this email.</p>
<p>The Mercato Team</p>`, strings.Split(name, " ")[0], resetURL)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", email, err)
		}
	}()
}
