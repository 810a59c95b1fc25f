package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/pkg/logger"
	"gravel_course_backend/pkg/security"

	"go.uber.org/zap"
)

var (
	ErrWebhookNoEmail  = errors.New("no email in session")
	ErrWebhookNoCourse = errors.New("no course_id in session")
)

var successURLCoursePattern = regexp.MustCompile(`/course/([a-z0-9-]+)/`)

const checkoutCompletedEvent = "checkout.session.completed"

type checkoutSession struct {
	ID              string `json:"id"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata    map[string]string `json:"metadata"`
	AmountTotal int               `json:"amount_total"`
	Currency    string            `json:"currency"`
	SuccessURL  string            `json:"success_url"`
}

type checkoutEvent struct {
	Type string `json:"type"`
	Data struct {
		Object checkoutSession `json:"object"`
	} `json:"data"`
}

type WebhookResult struct {
	Received      bool `json:"received"`
	AccessGranted bool `json:"access_granted,omitempty"`
}

// WebhookService 支付回调：先验签再变更状态，授权落库与通知邮件解耦。
type WebhookService struct {
	Users       *repository.UserRepository
	Enrollments *repository.EnrollmentRepository
	Sender      EmailSender
	Cfg         *config.Config

	Now func() time.Time
}

func NewWebhookService(users *repository.UserRepository, enrollments *repository.EnrollmentRepository, sender EmailSender, cfg *config.Config) *WebhookService {
	return &WebhookService{
		Users:       users,
		Enrollments: enrollments,
		Sender:      sender,
		Cfg:         cfg,
		Now:         time.Now,
	}
}

// VerifySignature 签名头缺失、格式错、不匹配或超过重放窗口都拒绝
func (s *WebhookService) VerifySignature(body []byte, header string) error {
	return security.VerifyWebhookSignature(body, header, s.Cfg.Stripe.WebhookSecret, s.Cfg.Stripe.SignatureTolerance, s.Now())
}

// HandleEvent 只有结账完成事件触发授权，其余事件确认收到后忽略。
// 同一会话 id 的重放是 no-op，不是错误。
func (s *WebhookService) HandleEvent(body []byte) (*WebhookResult, error) {
	var event checkoutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}

	if event.Type != checkoutCompletedEvent {
		return &WebhookResult{Received: true}, nil
	}

	session := event.Data.Object

	email := session.CustomerDetails.Email
	if email == "" {
		email = session.CustomerEmail
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		logger.Log.Error("Webhook: no email in checkout session", zap.String("session_id", session.ID))
		return nil, ErrWebhookNoEmail
	}

	courseID := session.Metadata["course_id"]
	if courseID == "" {
		courseID = extractCourseIDFromURL(session.SuccessURL)
	}
	if courseID == "" {
		logger.Log.Error("Webhook: no course_id found", zap.String("session_id", session.ID))
		return nil, ErrWebhookNoCourse
	}

	user, err := s.Users.GetOrCreate(email)
	if err != nil {
		return nil, err
	}

	currency := session.Currency
	if currency == "" {
		currency = "usd"
	}

	if _, err := s.Enrollments.CreateIfAbsent(&model.Enrollment{
		UserID:          user.ID,
		CourseID:        courseID,
		StripeSessionID: session.ID,
		AmountCents:     session.AmountTotal,
		Currency:        currency,
	}); err != nil {
		return nil, err
	}

	logger.Log.Info("Access granted",
		zap.String("email", email),
		zap.String("course_id", courseID),
		zap.String("session_id", session.ID))

	// 通知失败不影响已提交的授权，也不影响给回调方的应答
	s.notifyPurchase(email, courseID, session)

	return &WebhookResult{Received: true, AccessGranted: true}, nil
}

func (s *WebhookService) notifyPurchase(email, courseID string, session checkoutSession) {
	if s.Cfg.Email.NotificationEmail == "" {
		return
	}

	msg := buildPurchaseNotification(email, courseID, session.ID, session.AmountTotal, session.Currency, s.Now().UTC().Format(time.RFC3339))
	if err := s.Sender.Send(s.Cfg.Email.NotificationEmail, msg.Subject, msg.HTML); err != nil {
		logger.Log.Error("Purchase notification failed (grant unaffected)", zap.Error(err))
	}
}

func extractCourseIDFromURL(successURL string) string {
	match := successURLCoursePattern.FindStringSubmatch(successURL)
	if match == nil {
		return ""
	}
	return match[1]
}
