package services

import (
	"context"
	"fmt"
	"net/smtp"

	"lektoria/internal/config"
	"lektoria/internal/logger"
	"lektoria/internal/utils/helpers"

	"go.uber.org/zap"
)

type EmailService struct {
	auth smtp.Auth
	from string
	host string
	port string
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth: auth,
		from: cfg.MailFrom,
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
	}
}

func (s *EmailService) Send(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

func (s *EmailService) SendHTML(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

// SendConfirmation ставит в очередь письмо с ссылкой подтверждения почты.
func (s *EmailService) SendConfirmation(ctx context.Context, to, username, confirmLink string) error {
	EmailQueue <- EmailJob{
		To:      []string{to},
		Subject: "Подтвердите адрес электронной почты",
		Body:    helpers.BuildConfirmEmailHTML(username, confirmLink),
		IsHTML:  true,
	}
	return nil
}

// SendPasswordReset ставит в очередь письмо со ссылкой для сброса пароля.
func (s *EmailService) SendPasswordReset(ctx context.Context, to, username, resetLink string) error {
	EmailQueue <- EmailJob{
		To:      []string{to},
		Subject: "Ссылка для сброса пароля",
		Body:    helpers.BuildPasswordResetHTML(username, resetLink),
		IsHTML:  true,
	}
	return nil
}

type EmailJob struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

var EmailQueue = make(chan EmailJob, 100) // глобальная очередь на 100 писем

func StartEmailWorker(emailService *EmailService) {
	go func() {
		for job := range EmailQueue {
			var err error
			if job.IsHTML {
				err = emailService.SendHTML(job.To, job.Subject, job.Body)
			} else {
				err = emailService.Send(job.To, job.Subject, job.Body)
			}
			if err != nil {
				logger.Log.Error("Не удалось отправить письмо", zap.Error(err))
			}
		}
	}()
}
