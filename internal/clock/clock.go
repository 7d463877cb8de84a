package clock

import (
	"fmt"
	"time"
)

// SecondsSize размер секунд в процентах от основного текста часов
const SecondsSize = 80

// Time данные для виджета часов на странице
type Time struct {
	Main        string `json:"main"`
	Seconds     string `json:"seconds"`
	SecondsSize int    `json:"secondsSize"`
}

func At(t time.Time) Time {
	return Time{
		Main:        fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()),
		Seconds:     fmt.Sprintf("%02d", t.Second()),
		SecondsSize: SecondsSize,
	}
}

func Now() Time {
	return At(time.Now())
}
