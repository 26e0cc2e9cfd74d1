package utils

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ttacon/libphonenumber"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
)

var CountryCode = "PH"

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

var (
	orderNumberMu   sync.Mutex
	lastOrderNumber int64
)

// GenerateOrderNumber returns a unique order number. With Redis up the
// number carries a shared sequence, so concurrent instances cannot collide;
// without it the fallback is time-derived and strictly increasing within
// the process. The column's unique index is the backstop either way.
func GenerateOrderNumber(ctx context.Context) string {
	if seq, err := config.GetRedisCounter(ctx, "seq:order-number"); err == nil && seq > 0 {
		return fmt.Sprintf("SL%d-%d", time.Now().UnixMilli(), seq)
	}

	orderNumberMu.Lock()
	defer orderNumberMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastOrderNumber {
		now = lastOrderNumber + 1
	}
	lastOrderNumber = now
	return "SL" + strconv.FormatInt(now, 10)
}

// ObtainReconcileLock serializes the post-commit reconciliation of one order
// across instances. Callers must Release the returned lock.
func ObtainReconcileLock(ctx context.Context, logger *logrus.Logger, orderNumber string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, "reconcile:"+orderNumber, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 20),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, "utils", "ObtainReconcileLock", "could not obtain lock for order", orderNumber, err)
		return nil, err
	} else if err != nil {
		config.LogError(logger, "utils", "ObtainReconcileLock", "error obtaining lock for order", orderNumber, err)
		return nil, err
	}
	return lock, nil
}
