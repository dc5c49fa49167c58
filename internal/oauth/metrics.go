package oauth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts flow outcomes per provider.
type Metrics struct {
	authorizations *prometheus.CounterVec
	callbacks      *prometheus.CounterVec
	usersCreated   *prometheus.CounterVec
}

// NewMetrics registers the flow collectors on reg. A nil reg skips
// registration. Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_authorize_total",
			Help: "OAuth2 authorize requests by provider and result",
		}, []string{"provider", "result"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_callback_total",
			Help: "OAuth2 callbacks by provider and result code",
		}, []string{"provider", "result"}),
		usersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_users_resolved_total",
			Help: "Users resolved by OAuth2 login",
		}, []string{"provider"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.authorizations, err = register(reg, m.authorizations); err != nil {
		return nil, err
	}
	if m.callbacks, err = register(reg, m.callbacks); err != nil {
		return nil, err
	}
	if m.usersCreated, err = register(reg, m.usersCreated); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) authorize(provider, result string) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) callback(provider, result string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) userResolved(provider string) {
	if m == nil {
		return
	}
	m.usersCreated.WithLabelValues(provider).Inc()
}
