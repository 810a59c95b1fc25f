package service

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/model"
	"gravel_course_backend/pkg/logger"
	"gravel_course_backend/pkg/security"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender 邮件出口。Nudge 任务和 webhook 通知都只依赖该接口，
// 测试里用假实现替换。
type EmailSender interface {
	Send(toEmail, subject, htmlBody string) error
}

// EmailService SendGrid 实现
type EmailService struct {
	cfg    *config.EmailConfig
	client *sendgrid.Client
}

func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

func (s *EmailService) Send(toEmail, subject, htmlBody string) error {
	if s.cfg.SendGridAPIKey == "" {
		return fmt.Errorf("sendgrid api key not configured")
	}

	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := sgmail.NewEmail("", toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, "", htmlBody)

	resp, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	logger.Log.Debug("Email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// ── 模板 ──

func esc(s string) string {
	return html.EscapeString(s)
}

// courseTitle slug 转标题："gravel-race-prep" → "Gravel Race Prep"
func courseTitle(courseID string) string {
	words := strings.Split(strings.ReplaceAll(courseID, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

type nudgeEmail struct {
	Subject string
	HTML    string
}

// buildNudgeEmail nudge 类型对应的邮件文案。resumeURL 指回课程页，
// 每封都带退订链接。
func buildNudgeEmail(nudgeType, courseID, email string, streak int, lessonsCompleted int64, siteBase, unsubscribeBase, unsubscribeSecret string) nudgeEmail {
	title := courseTitle(courseID)
	resumeURL := fmt.Sprintf("%s/course/%s/", siteBase, courseID)
	token := security.UnsubscribeToken(email, unsubscribeSecret)
	unsubscribeURL := fmt.Sprintf("%s?email=%s&token=%s", unsubscribeBase, url.QueryEscape(email), token)

	button := func(label string) string {
		return fmt.Sprintf(`<a href="%s" style="display:inline-block;background:#1A8A82;color:#fff;padding:14px 32px;text-decoration:none;font-family:monospace;font-size:13px;letter-spacing:1px;text-transform:uppercase;margin-top:16px">%s</a>`, esc(resumeURL), label)
	}

	var subject, body string
	switch nudgeType {
	case model.NudgeStreakRisk:
		subject = fmt.Sprintf("Don't break your %d-day streak!", streak)
		body = fmt.Sprintf(`<p style="font-size:18px;color:#3a2e25">You've been on a <strong>%d-day streak</strong> in %s.</p>
<p style="color:#59473c">Complete a lesson today to keep it going. It only takes a few minutes.</p>
%s`, streak, esc(title), button("CONTINUE LEARNING"))

	case model.NudgeNearCompletion:
		subject = fmt.Sprintf("You're almost done with %s!", title)
		body = fmt.Sprintf(`<p style="font-size:18px;color:#3a2e25">You've completed <strong>%d lessons</strong> in %s. You're so close to finishing!</p>
<p style="color:#59473c">Pick up where you left off and cross the finish line.</p>
%s`, lessonsCompleted, esc(title), button("FINISH STRONG"))

	case model.NudgeCourseComplete:
		subject = fmt.Sprintf("You did it! %s complete", title)
		body = fmt.Sprintf(`<p style="font-size:18px;color:#3a2e25">Congratulations! You've completed <strong>%s</strong>.</p>
<p style="color:#59473c">You've earned the knowledge. Now go crush your next gravel race.</p>
<p style="color:#8c7568;font-family:monospace;font-size:12px;margin-top:24px">Check out our other courses and training plans at <a href="%s/course/" style="color:#1A8A82">%s/course</a></p>`, esc(title), esc(siteBase), esc(strings.TrimPrefix(strings.TrimPrefix(siteBase, "https://"), "http://")))

	case model.NudgeInactive:
		subject = "Your course is waiting for you"
		plural := "s"
		if lessonsCompleted == 1 {
			plural = ""
		}
		body = fmt.Sprintf(`<p style="font-size:18px;color:#3a2e25">It's been a while since you worked on <strong>%s</strong>.</p>
<p style="color:#59473c">You've already made progress &mdash; %d lesson%s down. Pick up where you left off.</p>
%s`, esc(title), lessonsCompleted, plural, button("RESUME COURSE"))
	}

	htmlBody := fmt.Sprintf(`<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto;padding:40px 24px">
%s
<div style="font-family:monospace;font-size:11px;color:#8c7568;text-align:center;padding:24px;margin-top:24px;border-top:1px solid #d4c5b9">
<a href="%s" style="color:#8c7568">Unsubscribe from course emails</a>
</div>
</div>`, body, esc(unsubscribeURL))

	return nudgeEmail{Subject: subject, HTML: htmlBody}
}

// buildPurchaseNotification 发给运营方的新购买通知
func buildPurchaseNotification(email, courseID, sessionID string, amountCents int, currency, timestamp string) nudgeEmail {
	amount := "—"
	if amountCents > 0 {
		amount = fmt.Sprintf("$%.2f %s", float64(amountCents)/100, strings.ToUpper(currency))
	}

	row := func(label, value string) string {
		return fmt.Sprintf(`<tr><td style="padding:4px 12px 4px 0;font-weight:bold">%s</td><td>%s</td></tr>`, label, esc(value))
	}

	htmlBody := fmt.Sprintf(`<h2>New Course Purchase</h2>
<table style="border-collapse:collapse;font-family:monospace">
%s%s%s%s%s</table>`,
		row("Course", courseID),
		row("Email", email),
		row("Amount", amount),
		row("Session ID", sessionID),
		row("Time", timestamp),
	)

	return nudgeEmail{
		Subject: fmt.Sprintf("[GG Course] New purchase: %s — %s", courseID, email),
		HTML:    htmlBody,
	}
}
