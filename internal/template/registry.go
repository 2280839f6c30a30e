package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

// ErrUnknownType is returned when no template is registered for a
// notification type. Callers must treat this as a client error.
var ErrUnknownType = errors.New("no template registered for notification type")

// Rendered is the output of a template: everything about a notification
// except its identity and timestamps.
type Rendered struct {
	Title        string
	Message      string
	Priority     model.Priority
	Category     model.Category
	IsActionable bool
	Actions      []model.Action
}

// payload wraps the opaque request data. Values are caller-controlled,
// so everything read out of it is sanitized before interpolation.
type payload map[string]interface{}

const maxFieldLen = 256

// str returns the sanitized string value for key, or fallback when the
// key is absent or empty.
func (p payload) str(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	s := sanitize(fmt.Sprint(v))
	if s == "" {
		return fallback
	}
	return s
}

// sanitize strips control characters and caps length so payload values
// cannot smuggle newlines or terminal escapes into rendered text.
func sanitize(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
		n++
		if n >= maxFieldLen {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

type definition struct {
	category     model.Category
	priority     model.Priority
	isActionable bool
	title        string
	message      func(p payload) string
	actions      func(p payload) []model.Action
}

// Registry maps notification types to their templates. Rendering is
// pure: same type and data in, same Rendered out.
type Registry struct {
	defs map[model.Type]definition
}

func NewRegistry() *Registry {
	return &Registry{defs: defaultDefinitions()}
}

// Render produces the displayable notification content for the given
// type and payload. Unknown types fail with ErrUnknownType.
func (r *Registry) Render(t model.Type, data map[string]interface{}) (*Rendered, error) {
	def, ok := r.defs[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}

	p := payload(data)
	rendered := &Rendered{
		Title:        def.title,
		Message:      def.message(p),
		Priority:     def.priority,
		Category:     def.category,
		IsActionable: def.isActionable,
	}
	if def.actions != nil {
		rendered.Actions = def.actions(p)
	}
	return rendered, nil
}

func defaultDefinitions() map[model.Type]definition {
	return map[model.Type]definition{
		model.TypeBookingRequest: {
			category:     model.CategoryBooking,
			priority:     model.PriorityHigh,
			isActionable: true,
			title:        "Nova Solicitação de Booking",
			message: func(p payload) string {
				return fmt.Sprintf("%s solicitou um booking para %s",
					p.str("clientName", "Um cliente"),
					p.str("service", "um serviço"))
			},
			actions: func(p payload) []model.Action {
				return []model.Action{
					{ID: "accept", Label: "Aceitar", Type: model.ActionTypeButton, Action: "accept_booking", Style: "primary"},
					{ID: "decline", Label: "Recusar", Type: model.ActionTypeButton, Action: "decline_booking", Style: "danger"},
				}
			},
		},
		model.TypeBookingConfirmed: {
			category: model.CategoryBooking,
			priority: model.PriorityMedium,
			title:    "Booking Confirmado",
			message: func(p payload) string {
				return fmt.Sprintf("Seu booking de %s foi confirmado para %s",
					p.str("service", "serviço"),
					p.str("date", "a data combinada"))
			},
		},
		model.TypeBookingCancelled: {
			category: model.CategoryBooking,
			priority: model.PriorityHigh,
			title:    "Booking Cancelado",
			message: func(p payload) string {
				return fmt.Sprintf("O booking de %s em %s foi cancelado",
					p.str("service", "serviço"),
					p.str("date", "data a confirmar"))
			},
		},
		model.TypePaymentReceived: {
			category: model.CategoryPayment,
			priority: model.PriorityHigh,
			title:    "Pagamento Recebido",
			message: func(p payload) string {
				return fmt.Sprintf("Você recebeu %s de %s",
					p.str("amount", "um pagamento"),
					p.str("payerName", "um cliente"))
			},
		},
		model.TypePayoutSent: {
			category: model.CategoryPayment,
			priority: model.PriorityMedium,
			title:    "Repasse Enviado",
			message: func(p payload) string {
				return fmt.Sprintf("Um repasse de %s foi enviado para sua conta",
					p.str("amount", "valor pendente"))
			},
		},
		model.TypeCourseEnrolled: {
			category: model.CategoryAcademy,
			priority: model.PriorityLow,
			title:    "Inscrição Confirmada",
			message: func(p payload) string {
				return fmt.Sprintf("Sua inscrição no curso %s foi confirmada",
					p.str("courseName", "selecionado"))
			},
		},
		model.TypeCourseCompleted: {
			category:     model.CategoryAcademy,
			priority:     model.PriorityMedium,
			isActionable: true,
			title:        "Curso Concluído",
			message: func(p payload) string {
				return fmt.Sprintf("Parabéns! Você concluiu o curso %s",
					p.str("courseName", "selecionado"))
			},
			actions: func(p payload) []model.Action {
				return []model.Action{
					{ID: "certificate", Label: "Ver Certificado", Type: model.ActionTypeLink, URL: p.str("certificateUrl", "/academy/certificates"), Style: "primary"},
				}
			},
		},
		model.TypeNewFollower: {
			category: model.CategorySocial,
			priority: model.PriorityLow,
			title:    "Novo Seguidor",
			message: func(p payload) string {
				return fmt.Sprintf("%s começou a seguir você",
					p.str("followerName", "Alguém"))
			},
		},
		model.TypeProductSold: {
			category: model.CategoryMarketplace,
			priority: model.PriorityHigh,
			title:    "Produto Vendido",
			message: func(p payload) string {
				return fmt.Sprintf("%s comprou %s",
					p.str("buyerName", "Um comprador"),
					p.str("productName", "um produto"))
			},
		},
		model.TypeMembershipRenewal: {
			category: model.CategoryPayment,
			priority: model.PriorityMedium,
			title:    "Renovação de Assinatura",
			message: func(p payload) string {
				return fmt.Sprintf("Sua assinatura %s será renovada em %s",
					p.str("plan", "atual"),
					p.str("renewalDate", "breve"))
			},
		},
	}
}
