package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/config"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/mailer"
)

// Consumes email jobs from RabbitMQ and delivers them through Mailgun.
// Malformed jobs are rejected without requeue; transient send failures are
// requeued once by the broker.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}
	if err := ch.Qos(5, 0, false); err != nil {
		log.Fatalf("failed to set qos: %v", err)
	}

	deliveries, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to start consumer: %v", err)
	}

	mail := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			handleDelivery(ctx, logger, mail, cfg.MailSendEnabled, d)
		}
	}
}

func handleDelivery(ctx context.Context, logger *logrus.Logger, mail *mailer.Mailgun, sendEnabled bool, d amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.WithError(err).Warn("dropping malformed email job")
		_ = d.Reject(false)
		return
	}
	if err := job.Validate(); err != nil {
		logger.WithError(err).Warn("dropping invalid email job")
		_ = d.Reject(false)
		return
	}

	subject, text, html := renderJob(job)

	if !sendEnabled {
		logger.WithFields(logrus.Fields{"to": job.To, "subject": subject}).Info("mail sending disabled, job acked")
		_ = d.Ack(false)
		return
	}

	if err := mail.Send(ctx, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("to", job.To).Error("failed to send email")
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	logger.WithFields(logrus.Fields{"to": job.To, "subject": subject}).Info("email sent")
	_ = d.Ack(false)
}

// renderJob resolves a template name to subject and body, falling back to the
// literal fields on the job.
func renderJob(job mailer.EmailJob) (subject, text, html string) {
	subject, text, html = job.Subject, job.Text, job.HTML
	if job.Template != "welcome" {
		return subject, text, html
	}
	name, _ := job.Data["first_name"].(string)
	if name == "" {
		name = "there"
	}
	if subject == "" {
		subject = "Welcome aboard!"
	}
	if text == "" {
		text = fmt.Sprintf("Hi %s,\n\nYour account is ready. Log in any time to manage your profile.\n", name)
	}
	if html == "" {
		html = fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Log in any time to manage your profile.</p>", name)
	}
	return subject, text, html
}
