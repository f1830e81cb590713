package lago

// ResponseMetadata is the pagination envelope of list responses.
type ResponseMetadata struct {
	CurrentPage int  `json:"current_page"`
	NextPage    *int `json:"next_page,omitempty"`
	PrevPage    *int `json:"prev_page,omitempty"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
}

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyCHF Currency = "CHF"
	CurrencyJPY Currency = "JPY"
	CurrencyINR Currency = "INR"
	CurrencyBRL Currency = "BRL"
	CurrencyMXN Currency = "MXN"
)

// InvoiceType is what an invoice bills for.
type InvoiceType string

const (
	InvoiceTypeSubscription       InvoiceType = "subscription"
	InvoiceTypeAddOn              InvoiceType = "add_on"
	InvoiceTypeCredit             InvoiceType = "credit"
	InvoiceTypeOneOff             InvoiceType = "one_off"
	InvoiceTypeProgressiveBilling InvoiceType = "progressive_billing"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	InvoiceStatusVoided    InvoiceStatus = "voided"
	InvoiceStatusFailed    InvoiceStatus = "failed"
)

// PaymentStatus is the payment state of a finalized invoice.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Invoice is an invoice as returned by GET /api/v1/invoices.
type Invoice struct {
	LagoID                              string           `json:"lago_id"`
	SequentialID                        *int             `json:"sequential_id,omitempty"`
	Number                              string           `json:"number"`
	IssuingDate                         string           `json:"issuing_date"`
	PaymentDisputeLostAt                *string          `json:"payment_dispute_lost_at,omitempty"`
	PaymentDueDate                      *string          `json:"payment_due_date,omitempty"`
	PaymentOverdue                      *bool            `json:"payment_overdue,omitempty"`
	NetPaymentTerm                      *int             `json:"net_payment_term,omitempty"`
	InvoiceType                         InvoiceType      `json:"invoice_type"`
	Status                              InvoiceStatus    `json:"status"`
	PaymentStatus                       PaymentStatus    `json:"payment_status"`
	Currency                            Currency         `json:"currency"`
	FeesAmountCents                     int64            `json:"fees_amount_cents"`
	CouponsAmountCents                  int64            `json:"coupons_amount_cents"`
	CreditNotesAmountCents              int64            `json:"credit_notes_amount_cents"`
	SubTotalExcludingTaxesAmountCents   int64            `json:"sub_total_excluding_taxes_amount_cents"`
	TaxesAmountCents                    int64            `json:"taxes_amount_cents"`
	SubTotalIncludingTaxesAmountCents   int64            `json:"sub_total_including_taxes_amount_cents"`
	PrepaidCreditAmountCents            int64            `json:"prepaid_credit_amount_cents"`
	ProgressiveBillingCreditAmountCents int64            `json:"progressive_billing_credit_amount_cents"`
	TotalAmountCents                    int64            `json:"total_amount_cents"`
	Customer                            map[string]any   `json:"customer"`
	Metadata                            []map[string]any `json:"metadata"`
	AppliedTaxes                        []map[string]any `json:"applied_taxes"`
	AppliedUsageThresholds              []map[string]any `json:"applied_usage_thresholds,omitempty"`
}

// InvoicesResponse is one page of GET /api/v1/invoices.
type InvoicesResponse struct {
	Invoices []Invoice        `json:"invoices"`
	Meta     ResponseMetadata `json:"meta"`
}

// ChargeModel selects how a charge prices usage.
type ChargeModel string

const (
	ChargeModelStandard            ChargeModel = "standard"
	ChargeModelGraduated           ChargeModel = "graduated"
	ChargeModelGraduatedPercentage ChargeModel = "graduated_percentage"
	ChargeModelPackage             ChargeModel = "package"
	ChargeModelPercentage          ChargeModel = "percentage"
	ChargeModelVolume              ChargeModel = "volume"
	ChargeModelDynamic             ChargeModel = "dynamic"
)

// ChargeProperties holds the pricing parameters of a charge. Which fields are
// set depends on the charge model.
type ChargeProperties struct {
	GraduatedRanges              []map[string]any `json:"graduated_ranges,omitempty"`
	GraduatedPercentageRanges    []map[string]any `json:"graduated_percentage_ranges,omitempty"`
	Amount                       *string          `json:"amount,omitempty"`
	FreeUnits                    *int64           `json:"free_units,omitempty"`
	PackageSize                  *int64           `json:"package_size,omitempty"`
	Rate                         *string          `json:"rate,omitempty"`
	FixedAmount                  *string          `json:"fixed_amount,omitempty"`
	FreeUnitsPerEvents           *int64           `json:"free_units_per_events,omitempty"`
	FreeUnitsPerTotalAggregation *string          `json:"free_units_per_total_aggregation,omitempty"`
	PerTransactionMaxAmount      *string          `json:"per_transaction_max_amount,omitempty"`
	PerTransactionMinAmount      *string          `json:"per_transaction_min_amount,omitempty"`
	GroupedBy                    []string         `json:"grouped_by,omitempty"`
	VolumeRanges                 []map[string]any `json:"volume_ranges,omitempty"`
}

// Charge is a usage-based price attached to a plan.
type Charge struct {
	LagoID               string           `json:"lago_id"`
	LagoBillableMetricID string           `json:"lago_billable_metric_id"`
	BillableMetricCode   string           `json:"billable_metric_code"`
	InvoiceDisplayName   *string          `json:"invoice_display_name,omitempty"`
	CreatedAt            string           `json:"created_at"`
	ChargeModel          ChargeModel      `json:"charge_model"`
	PayInAdvance         *bool            `json:"pay_in_advance,omitempty"`
	Invoiceable          *bool            `json:"invoiceable,omitempty"`
	RegroupPaidFees      *string          `json:"regroup_paid_fees,omitempty"`
	Prorated             *bool            `json:"prorated,omitempty"`
	MinAmountCents       *int64           `json:"min_amount_cents,omitempty"`
	Properties           ChargeProperties `json:"properties"`
	Filters              []map[string]any `json:"filters"`
	Taxes                []map[string]any `json:"taxes"`
}

// PlanInterval is the billing period of a plan.
type PlanInterval string

const (
	PlanIntervalWeekly    PlanInterval = "weekly"
	PlanIntervalMonthly   PlanInterval = "monthly"
	PlanIntervalQuarterly PlanInterval = "quarterly"
	PlanIntervalYearly    PlanInterval = "yearly"
)

// Plan is a pricing plan with its charges.
type Plan struct {
	LagoID                   string           `json:"lago_id"`
	Name                     string           `json:"name"`
	InvoiceDisplayName       *string          `json:"invoice_display_name,omitempty"`
	CreatedAt                string           `json:"created_at"`
	Code                     string           `json:"code"`
	Interval                 PlanInterval     `json:"interval"`
	Description              *string          `json:"description,omitempty"`
	AmountCents              int64            `json:"amount_cents"`
	AmountCurrency           Currency         `json:"amount_currency"`
	TrialPeriod              *float64         `json:"trial_period,omitempty"`
	PayInAdvance             bool             `json:"pay_in_advance"`
	BillChargesMonthly       *bool            `json:"bill_charges_monthly,omitempty"`
	ActiveSubscriptionsCount int              `json:"active_subscriptions_count"`
	DraftInvoicesCount       int              `json:"draft_invoices_count"`
	MinimumCommitment        map[string]any   `json:"minimum_commitment,omitempty"`
	Charges                  []Charge         `json:"charges"`
	Taxes                    []map[string]any `json:"taxes"`
	UsageThresholds          []map[string]any `json:"usage_thresholds"`
}

// PlansResponse is one page of GET /api/v1/plans.
type PlansResponse struct {
	Plans []Plan           `json:"plans"`
	Meta  ResponseMetadata `json:"meta"`
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPending    SubscriptionStatus = "pending"
	SubscriptionStatusTerminated SubscriptionStatus = "terminated"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
)

// BillingTime anchors billing periods to the calendar or to the subscription date.
type BillingTime string

const (
	BillingTimeCalendar    BillingTime = "calendar"
	BillingTimeAnniversary BillingTime = "anniversary"
)

// Subscription assigns a plan to a customer. Usage events reference it by
// ExternalID.
type Subscription struct {
	LagoID             string             `json:"lago_id"`
	ExternalID         string             `json:"external_id"`
	LagoCustomerID     string             `json:"lago_customer_id"`
	ExternalCustomerID string             `json:"external_customer_id"`
	BillingTime        BillingTime        `json:"billing_time"`
	Name               *string            `json:"name,omitempty"`
	PlanCode           string             `json:"plan_code"`
	Status             SubscriptionStatus `json:"status"`
	CreatedAt          string             `json:"created_at"`
	CanceledAt         *string            `json:"canceled_at,omitempty"`
	StartedAt          *string            `json:"started_at,omitempty"`
	EndingAt           *string            `json:"ending_at,omitempty"`
	SubscriptionAt     string             `json:"subscription_at"`
	TerminatedAt       *string            `json:"terminated_at,omitempty"`
	PreviousPlanCode   *string            `json:"previous_plan_code,omitempty"`
	NextPlanCode       *string            `json:"next_plan_code,omitempty"`
	DowngradePlanDate  *string            `json:"downgrade_plan_date,omitempty"`
	TrialEndedAt       *string            `json:"trial_ended_at,omitempty"`
	Plan               *Plan              `json:"plan,omitempty"`
}

// SubscriptionsResponse is one page of GET /api/v1/subscriptions.
type SubscriptionsResponse struct {
	Subscriptions []Subscription   `json:"subscriptions"`
	Meta          ResponseMetadata `json:"meta"`
}

// SubscriptionUpdate is the body of PUT /api/v1/subscriptions/{external_id}.
// Nil fields are left unchanged.
type SubscriptionUpdate struct {
	Name           *string `json:"name,omitempty"`
	EndingAt       *string `json:"ending_at,omitempty"`
	SubscriptionAt *string `json:"subscription_at,omitempty"`
}
