package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/lifeledger/internal/format"
	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
	"github.com/hray3182/lifeledger/internal/rrule"
)

const helpText = `📖 Commands

/start - bring recurring entries up to date
/recurring - list your recurring rules
/upcoming [n] - next due entries across all rules
/commitments - monthly income and expense from recurring rules
/addrecurring <expense|income> <amount> <frequency[:day]> <start|today> <name>
/pause <n> - pause rule n from /recurring
/resume <n> - resume rule n from /recurring

Example: /addrecurring expense 1200 monthly:31 2024-01-01 Rent`

func startMessage(firstName string, res recurrence.Result) format.ParseResult {
	var b format.Builder
	b.Text("👋 Hi ")
	if firstName == "" {
		firstName = "there"
	}
	b.Text(firstName).Text("!").Line().Line()
	writeRun(&b, res)
	return b.Result()
}

func runMessage(res recurrence.Result) format.ParseResult {
	var b format.Builder
	writeRun(&b, res)
	return b.Result()
}

func writeRun(b *format.Builder, res recurrence.Result) {
	if res.Warning != nil {
		b.Text("⚠️ Could not load your recurring rules right now. Nothing was generated.").Line()
		return
	}

	if res.Generated == 0 && len(res.Errors) == 0 {
		b.Text("✅ Your recurring entries are up to date.").Line()
		return
	}

	if res.Generated > 0 {
		b.Text("🔄 ").Bold(plural(res.Generated, "recurring entry", "recurring entries")).Text(" added").Line()
		for _, o := range res.Outcomes {
			if o.Created == 0 {
				continue
			}
			b.Text("• ").Text(o.Name).Text(": ")
			dates := make([]string, len(o.Dates))
			for i, d := range o.Dates {
				dates[i] = models.FormatDate(d)
			}
			b.Text(strings.Join(dates, ", ")).Line()
		}
	}
	for _, o := range res.Outcomes {
		if o.Stop == recurrence.StopLimited {
			b.Text("⏳ ").Text(o.Name).Text(" has more past dates; they will be added next time.").Line()
		}
	}
	for _, e := range res.Errors {
		b.Text("⚠️ ").Text(e.Name).Text(" could not be processed.").Line()
	}
}

func rulesMessage(rules []*models.RecurrenceRule, today time.Time) format.ParseResult {
	var b format.Builder
	if len(rules) == 0 {
		return b.Text("You have no recurring rules yet. Add one with /addrecurring.").Result()
	}

	b.Bold("🔁 Recurring rules").Line().Line()
	for i, rule := range rules {
		b.Textf("%d. ", i+1).Bold(rule.Name).Textf(" · %s %s", rule.Type, rule.Amount.StringFixed(2))
		if rule.Category != "" {
			b.Text(" · ").Text(rule.Category)
		}
		b.Line()
		b.Text("   ").Italic(rrule.Describe(rule)).Line()
		b.Text("   ").Text(ruleStatus(rule, today)).Line()
	}
	return b.Result()
}

func ruleStatus(rule *models.RecurrenceRule, today time.Time) string {
	if !rule.Active {
		return "⏸ paused"
	}
	next, err := recurrence.Upcoming(rule, today, 1)
	if err != nil {
		return "⚠️ invalid rule"
	}
	if len(next) == 0 {
		return "🏁 finished"
	}
	return "next: " + models.FormatDate(next[0])
}

func upcomingMessage(dues []recurrence.Due) format.ParseResult {
	var b format.Builder
	if len(dues) == 0 {
		return b.Text("Nothing is coming up.").Result()
	}

	b.Bold("📅 Upcoming").Line().Line()
	for _, d := range dues {
		sign := "-"
		if d.Rule.Type == models.TransactionTypeIncome {
			sign = "+"
		}
		b.Code(models.FormatDate(d.Date)).Text(" ").Text(d.Rule.Name).
			Textf(" %s%s", sign, d.Rule.Amount.StringFixed(2)).Line()
	}
	return b.Result()
}

func commitmentsMessage(c recurrence.Commitments) format.ParseResult {
	var b format.Builder
	b.Bold("📊 Monthly commitments").Line().Line()
	b.Textf("💰 Income: %s", c.Income.StringFixed(2)).Line()
	b.Textf("💸 Expense: %s", c.Expense.StringFixed(2)).Line()
	b.Text("━━━━━━━━━━").Line()

	emoji := "📈"
	if c.Net.IsNegative() {
		emoji = "📉"
	}
	b.Textf("%s Net: ", emoji).Bold(c.Net.StringFixed(2))
	return b.Result()
}

func createdMessage(rule *models.RecurrenceRule) format.ParseResult {
	var b format.Builder
	b.Text("✅ Added ").Bold(rule.Name).Line()
	b.Textf("%s %s, %s", rule.Type, rule.Amount.StringFixed(2), rrule.Describe(rule)).Line()
	b.Textf("Starting %s. Any past due dates are being added now.", models.FormatDate(rule.StartDate))
	return b.Result()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
