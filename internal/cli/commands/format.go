package commands

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
)

// formatCurrency renders an amount in rupees with Indian digit grouping
// (1,23,456.00)
func formatCurrency(amount client.Amount) string {
	value := float64(amount)
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}

	whole := math.Floor(value)
	paise := int(math.Round((value - whole) * 100))
	if paise == 100 {
		whole++
		paise = 0
	}

	digits := fmt.Sprintf("%.0f", whole)
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		digits = strings.Join(groups, ",") + "," + tail
	}

	return fmt.Sprintf("%s₹%s.%02d", sign, digits, paise)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006, 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func printPageFooter[T any](w io.Writer, page *client.Page[T], number int) {
	if number < 1 {
		number = 1
	}
	fmt.Fprintf(w, "\nPage %d · %d of %d shown", number, len(page.Results), page.Count)
	if page.HasNext() {
		fmt.Fprintf(w, " · more with --page %d", number+1)
	}
	fmt.Fprintln(w)
}

func printOrders(w io.Writer, orders []client.Order) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tEMAIL\tDATE\tITEMS\tTOTAL\tSTATUS")
	fmt.Fprintln(tw, "──\t────────\t─────\t────\t─────\t─────\t──────")
	for _, order := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			order.ID,
			order.CustomerName,
			order.CustomerEmail,
			formatDate(order.DateOrdered),
			order.CartItems,
			formatCurrency(order.CartTotal),
			order.Status(),
		)
	}
	tw.Flush()
}

func formatRating(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating) + " " + strconv.Itoa(rating)
}
