package render

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	colSpacePattern = regexp.MustCompile(`\s+col:([0-9,%]+)`)
	colDashPattern  = regexp.MustCompile(`-col:([0-9,%]+)`)
)

// colInfo ширина колонки из ключа "div_x col:2,1,1" или "div_2-col:80%"
type colInfo struct {
	percent    bool
	percentage float64
	desktop    int
	tablet     int
	mobile     int
}

// class CSS-класс колонки; для адаптивной сетки решает ширина на десктопе
func (c colInfo) class() string {
	if c.percent {
		return "_col-" + strconv.Itoa(int(math.Round(c.percentage))) + "pct"
	}
	return "_col-" + strconv.Itoa(c.desktop)
}

// parseCol отделяет синтаксис col: от ключа элемента
func parseCol(key string) (string, *colInfo) {
	var (
		clean string
		col   string
	)
	if m := colSpacePattern.FindStringSubmatch(key); m != nil {
		col = m[1]
		clean = strings.TrimSpace(colSpacePattern.ReplaceAllString(key, ""))
	} else if m = colDashPattern.FindStringSubmatch(key); m != nil {
		col = m[1]
		// "div_2-col:80%" -> "div_2-col"
		clean = strings.TrimSpace(strings.Replace(key, m[0], "-col", 1))
	} else {
		return key, nil
	}

	if strings.Contains(col, "%") {
		num, _, _ := strings.Cut(strings.ReplaceAll(col, "%", ""), ",")
		pct, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return clean, nil
		}
		return clean, &colInfo{percent: true, percentage: pct}
	}

	parts := strings.Split(col, ",")
	if len(parts) == 3 {
		d, errD := strconv.Atoi(strings.TrimSpace(parts[0]))
		t, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		m, _ := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errD != nil {
			return clean, nil
		}
		return clean, &colInfo{desktop: d, tablet: t, mobile: m}
	}

	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return clean, nil
	}
	return clean, &colInfo{desktop: n, tablet: n, mobile: n}
}

// elementClass класс элемента по ключу div_*: "div_fp04-field" -> "fp04-field",
// "div_1-col" -> "content-1-col" (класс не может начинаться с цифры)
func elementClass(cleanKey string) string {
	if !strings.HasPrefix(cleanKey, "div_") {
		return defaultClass
	}
	suffix := cleanKey[len("div_"):]
	if suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
		return "content-" + suffix
	}
	return suffix
}
