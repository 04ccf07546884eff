package workflow

import (
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Options are shared by every workflow. Zero values fall back to config.
type Options struct {
	Logger   logrus.FieldLogger
	Clock    Clock
	TaxRate  *decimal.Decimal
	Location *time.Location
	Locker   SequenceLocker
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = config.GetLogger()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.TaxRate == nil {
		rate := config.DefaultTaxRate()
		o.TaxRate = &rate
	}
	if o.Location == nil {
		o.Location = config.AppLocation()
	}
	return o
}
