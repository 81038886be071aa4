package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// EmailService handles transactional email via SMTP
type EmailService struct {
	host   string
	port   int
	user   string
	pass   string
	logger *log.Logger
}

// NewEmailService creates an email service from SMTP_* environment variables
func NewEmailService() *EmailService {
	port := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &port)
	}
	return &EmailService{
		host:   os.Getenv("SMTP_HOST"),
		port:   port,
		user:   os.Getenv("SMTP_USER"),
		pass:   os.Getenv("SMTP_PASS"),
		logger: log.New(os.Stdout, "[EMAIL] ", log.LstdFlags),
	}
}

// Configured reports whether SMTP credentials are present
func (s *EmailService) Configured() bool {
	return s.host != "" && s.user != ""
}

// SendOTPEmail sends a verification code by email, used when no phone is
// on file or SMS delivery is unavailable
func (s *EmailService) SendOTPEmail(to, code string) error {
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.\n\nIf you did not request this code, you can ignore this email.", code)
	return s.send(to, subject, body)
}

// SendWelcomeEmail sends the post-verification welcome message
func (s *EmailService) SendWelcomeEmail(to, fullName string) error {
	subject := "Welcome to Personal Brand DNA"
	body := fmt.Sprintf("Hi %s,\n\nYour account is verified and ready. Head to your dashboard to run your first voice analysis.\n", fullName)
	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	if !s.Configured() {
		s.logger.Printf("SMTP not configured, skipping email to %s", to)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Printf("Email sent to %s: %s", to, subject)
	return nil
}
