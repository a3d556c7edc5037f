package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"japoke-backend/internal/config"
	"japoke-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const graphAPIBase = "https://graph.facebook.com"

var statusTemplates = map[models.OrderStatus]string{
	models.OrderConfirmed: "order_confirmed",
	models.OrderPreparing: "order_preparing",
	models.OrderReady:     "order_ready",
	models.OrderDelivered: "order_delivered",
	models.OrderCancelled: "order_cancelled",
}

// TemplateFor returns the message template for a status, or "" when the
// status is not announced.
func TemplateFor(status models.OrderStatus) string {
	return statusTemplates[status]
}

type LogStore interface {
	CreateLog(ctx context.Context, l *models.WhatsAppLog) error
	CountSent(ctx context.Context, month string) (int64, error)
}

type GormLogStore struct {
	db *gorm.DB
}

func NewGormLogStore(db *gorm.DB) *GormLogStore {
	return &GormLogStore{db: db}
}

func (s *GormLogStore) CreateLog(ctx context.Context, l *models.WhatsAppLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormLogStore) CountSent(ctx context.Context, month string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WhatsAppLog{}).
		Where("month = ? AND status = ?", month, models.WhatsAppSent).
		Count(&n).Error
	return n, err
}

type Usage struct {
	Month      string `json:"month"`
	Count      int64  `json:"count"`
	Limit      int    `json:"limit"`
	Remaining  int64  `json:"remaining"`
	AutoPaused bool   `json:"autoPaused"`
}

// WhatsApp sends order status templates through the Cloud API, bounded by a
// monthly quota of sent messages.
type WhatsApp struct {
	cfg     config.WhatsAppConfig
	toggle  *Toggle
	logs    LogStore
	client  *http.Client
	baseURL string
	loc     *time.Location
	now     func() time.Time
	log     *logrus.Entry
}

func NewWhatsApp(cfg config.WhatsAppConfig, toggle *Toggle, logs LogStore, timeout time.Duration, loc *time.Location, log *logrus.Entry) *WhatsApp {
	if loc == nil {
		loc = time.UTC
	}
	return &WhatsApp{
		cfg:     cfg,
		toggle:  toggle,
		logs:    logs,
		client:  &http.Client{Timeout: timeout},
		baseURL: graphAPIBase,
		loc:     loc,
		now:     time.Now,
		log:     log,
	}
}

// Enabled is the config flag AND the manual toggle.
func (w *WhatsApp) Enabled() bool {
	return w.cfg.Enabled && w.cfg.Configured() && w.toggle.Enabled()
}

func (w *WhatsApp) ManualToggle() bool {
	return w.toggle.Enabled()
}

func (w *WhatsApp) SetManualToggle(enabled bool) bool {
	return w.toggle.Set(enabled)
}

func (w *WhatsApp) month() string {
	return w.now().In(w.loc).Format("2006-01")
}

func (w *WhatsApp) Usage(ctx context.Context) (Usage, error) {
	month := w.month()
	n, err := w.logs.CountSent(ctx, month)
	if err != nil {
		return Usage{}, fmt.Errorf("count sent messages: %w", err)
	}
	remaining := int64(w.cfg.MonthlyLimit) - n
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Month:      month,
		Count:      n,
		Limit:      w.cfg.MonthlyLimit,
		Remaining:  remaining,
		AutoPaused: n >= int64(w.cfg.MonthlyLimit),
	}, nil
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return full
}

func (w *WhatsApp) NotifyStatusChange(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	entry := w.log.WithFields(logrus.Fields{"order": order.OrderNumber, "status": status})
	if !w.Enabled() {
		entry.Debug("whatsapp disabled, message not sent")
		return nil
	}
	template := TemplateFor(status)
	if template == "" {
		return nil
	}

	phone, err := NormalizePhone(order.Customer.Phone, w.cfg.DefaultRegion)
	if err != nil {
		return w.record(ctx, models.WhatsAppLog{
			Phone: order.Customer.Phone, OrderNumber: order.OrderNumber,
			Template: template, Status: models.WhatsAppFailed, Error: err.Error(),
		}, err)
	}

	usage, err := w.Usage(ctx)
	if err != nil {
		return err
	}
	base := models.WhatsAppLog{Phone: phone, OrderNumber: order.OrderNumber, Template: template}
	if usage.AutoPaused {
		entry.WithFields(logrus.Fields{"count": usage.Count, "limit": usage.Limit}).Warn("monthly whatsapp limit reached, message blocked")
		base.Status = models.WhatsAppBlocked
		return w.record(ctx, base, nil)
	}

	if err := w.send(ctx, phone, template, firstName(order.Customer.Name), order.OrderNumber); err != nil {
		base.Status, base.Error = models.WhatsAppFailed, truncate(err.Error(), 500)
		return w.record(ctx, base, err)
	}
	base.Status = models.WhatsAppSent
	entry.WithField("phone", maskPhone(phone)).Info("whatsapp template sent")
	return w.record(ctx, base, nil)
}

// record stores the log row and returns cause, or the storage error when
// there is no cause.
func (w *WhatsApp) record(ctx context.Context, l models.WhatsAppLog, cause error) error {
	l.Month = w.month()
	if err := w.logs.CreateLog(ctx, &l); err != nil {
		if cause != nil {
			return fmt.Errorf("%w (log not stored: %v)", cause, err)
		}
		return fmt.Errorf("store whatsapp log: %w", err)
	}
	return cause
}

type templateParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string          `json:"type"`
	Parameters []templateParam `json:"parameters"`
}

type templateMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Template         struct {
		Name       string              `json:"name"`
		Language   map[string]string   `json:"language"`
		Components []templateComponent `json:"components"`
	} `json:"template"`
}

func (w *WhatsApp) send(ctx context.Context, phone, template, name, orderNumber string) error {
	msg := templateMessage{MessagingProduct: "whatsapp", To: phone, Type: "template"}
	msg.Template.Name = template
	msg.Template.Language = map[string]string{"code": "es"}
	msg.Template.Components = []templateComponent{{
		Type: "body",
		Parameters: []templateParam{
			{Type: "text", Text: name},
			{Type: "text", Text: orderNumber},
		},
	}}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", w.baseURL, w.cfg.APIVersion, w.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("WhatsApp API error %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
