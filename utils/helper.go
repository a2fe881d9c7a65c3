package utils

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

const DefaultTimezone = "Asia/Jakarta"

// MoneyPlaces is the number of decimal places kept on IDR amounts.
const MoneyPlaces = 2

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	return time.LoadLocation(timezone)
}

// ConvertToDate drops the clock part of t as seen from timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	location, err := LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)
	return time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location), nil
}

// PeriodIdOf returns the YYYY-MM accounting period containing t.
func PeriodIdOf(t time.Time, timezone string) (string, error) {
	location, err := LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return t.In(location).Format("2006-01"), nil
}

// MonthRange returns the first and last calendar day of a YYYY-MM period.
func MonthRange(periodId string, timezone string) (time.Time, time.Time, error) {
	location, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation("2006-01", strings.TrimSpace(periodId), location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period id %q: expected YYYY-MM", periodId)
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
