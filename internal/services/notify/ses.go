// Package notify sends scheme match notification emails via AWS SES.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/utils"
)

// Service handles SES email operations.
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email.
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// MatchNotificationParams contains data for a match notification email.
type MatchNotificationParams struct {
	UserName   string
	UserEmail  string
	MatchCount int
	TopMatches []MatchInfo
	PortalURL  string
}

// MatchInfo contains info about a single matched scheme for email.
type MatchInfo struct {
	SchemeName string
	Category   string
	Benefits   string
	URL        string
	Score      int
	Tier       string
}

// SendEmailResult contains the result of sending an email.
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES notification service.
func NewService(ctx context.Context, fromEmail string) (*Service, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}, nil
}

// SendEmail sends a basic email.
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", *result.MessageId),
	)

	return &SendEmailResult{
		MessageID: *result.MessageId,
		SentAt:    time.Now(),
	}, nil
}

// SendMatchNotification sends a scheme match notification email.
func (s *Service) SendMatchNotification(ctx context.Context, params MatchNotificationParams) (*SendEmailResult, error) {
	htmlBody, err := renderMatchNotificationHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Good news, %s! %d welfare schemes match your profile", params.UserName, params.MatchCount)

	return s.SendEmail(ctx, EmailParams{
		To:       params.UserEmail,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: renderMatchNotificationText(params),
	})
}

// SendBatchMatchNotifications sends match notifications to multiple users.
func (s *Service) SendBatchMatchNotifications(ctx context.Context, notifications []MatchNotificationParams) ([]SendEmailResult, []error) {
	results := make([]SendEmailResult, 0, len(notifications))
	errors := make([]error, 0)

	for _, notif := range notifications {
		result, err := s.SendMatchNotification(ctx, notif)
		if err != nil {
			errors = append(errors, fmt.Errorf("failed to send to %s: %w", notif.UserEmail, err))
			continue
		}
		results = append(results, *result)
	}

	utils.GetLogger().Info("Batch notifications sent",
		zap.Int("total", len(notifications)),
		zap.Int("success", len(results)),
		zap.Int("failed", len(errors)),
	)

	return results, errors
}

// BuildMatchNotificationParams creates notification params from match results.
func BuildMatchNotificationParams(userName, userEmail string, matches []models.MatchResult, portalURL string) MatchNotificationParams {
	const maxEmailMatches = 5

	top := matches
	if len(top) > maxEmailMatches {
		top = top[:maxEmailMatches]
	}

	infos := make([]MatchInfo, 0, len(top))
	for _, m := range top {
		infos = append(infos, MatchInfo{
			SchemeName: m.Scheme.Name,
			Category:   m.Scheme.Category,
			Benefits:   m.Scheme.Benefits,
			URL:        m.Scheme.URL,
			Score:      m.Score,
			Tier:       string(m.Tier),
		})
	}

	return MatchNotificationParams{
		UserName:   userName,
		UserEmail:  userEmail,
		MatchCount: len(matches),
		TopMatches: infos,
		PortalURL:  portalURL,
	}
}

func renderMatchNotificationHTML(params MatchNotificationParams) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #11998e 0%, #38ef7d 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .match-card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .match-card h3 { margin: 0 0 10px 0; color: #11998e; }
        .match-card .category { color: #666; font-size: 14px; margin-bottom: 10px; text-transform: capitalize; }
        .match-card .benefits { margin: 10px 0; }
        .score-badge { display: inline-block; background: #28a745; color: white; padding: 5px 12px; border-radius: 20px; font-weight: bold; }
        .tier { font-size: 12px; color: #999; text-transform: uppercase; letter-spacing: 1px; }
        .cta-button { display: inline-block; background: #11998e; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; margin-top: 20px; }
        .footer { text-align: center; margin-top: 30px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>New Scheme Matches Found!</h1>
        <p>Hi {{.UserName}}, {{.MatchCount}} welfare schemes match your profile</p>
    </div>
    <div class="content">
        <p>Based on your profile, these government schemes fit you best:</p>

        {{range .TopMatches}}
        <div class="match-card">
            <h3>{{.SchemeName}}</h3>
            <p class="category">{{.Category}}</p>
            {{if .Benefits}}<p class="benefits">{{.Benefits}}</p>{{end}}
            <span class="score-badge">{{.Score}}/100</span>
            <span class="tier">{{.Tier}} match</span>
            {{if .URL}}<p><a href="{{.URL}}">Official scheme page</a></p>{{end}}
        </div>
        {{end}}

        {{if .PortalURL}}
        <div style="text-align: center;">
            <a href="{{.PortalURL}}" class="cta-button">View All Matches</a>
        </div>
        {{end}}
    </div>
    <div class="footer">
        <p>This email was sent by the Welfare Scheme Engine</p>
        <p>You received this because you asked for scheme recommendations.</p>
    </div>
</body>
</html>`

	t, err := template.New("match_notification").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderMatchNotificationText(params MatchNotificationParams) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", params.UserName))
	buf.WriteString(fmt.Sprintf("Good news! %d welfare schemes match your profile.\n\n", params.MatchCount))
	buf.WriteString("Your top matches:\n\n")

	for i, match := range params.TopMatches {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, match.SchemeName, match.Category))
		buf.WriteString(fmt.Sprintf("   Match score: %d/100 (%s)\n", match.Score, match.Tier))
		if match.URL != "" {
			buf.WriteString(fmt.Sprintf("   Apply: %s\n", match.URL))
		}
		buf.WriteString("\n")
	}

	if params.PortalURL != "" {
		buf.WriteString(fmt.Sprintf("View all matches: %s\n\n", params.PortalURL))
	}

	buf.WriteString("Best regards,\nWelfare Scheme Engine Team\n")

	return buf.String()
}

// VerifyEmailAddress verifies an email address for sending.
func (s *Service) VerifyEmailAddress(ctx context.Context, email string) error {
	_, err := s.client.VerifyEmailAddress(ctx, &ses.VerifyEmailAddressInput{
		EmailAddress: aws.String(email),
	})
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	utils.GetLogger().Info("Email verification initiated", zap.String("email", email))
	return nil
}
