package store

// Attendance status values. The only transition in scope is
// PENDING -> VERIFIED, performed by the verification handler.
const (
	StatusPending  = "PENDING"
	StatusVerified = "VERIFIED"
)

// Registration type values.
const (
	RegistrationSelfService = "self-service"
	RegistrationManual      = "manual"
)

// ScheduleItem is one entry of an event's agenda.
type ScheduleItem struct {
	Time  string `dynamodbav:"time" json:"time"`
	Title string `dynamodbav:"title" json:"title"`
}

// Referee is a speaker or referee attached to an event.
type Referee struct {
	Title       string `dynamodbav:"title" json:"title"`
	FullName    string `dynamodbav:"fullName" json:"fullName"`
	LinkedinURL string `dynamodbav:"linkedinUrl,omitempty" json:"linkedinUrl,omitempty"`
}

// ExtraInfo carries optional logistics flags for an event.
type ExtraInfo struct {
	RoomReservation    bool `dynamodbav:"roomReservation" json:"roomReservation,omitempty"`
	AirTransfer        bool `dynamodbav:"airTransfer" json:"airTransfer,omitempty"`
	DinnerConfirmation bool `dynamodbav:"dinnerConfirmation" json:"dinnerConfirmation,omitempty"`
}

// Event is an event record. PK, SK and EventType are derived from the
// path-supplied event type plus the slug and creation date; they are
// immutable once written.
type Event struct {
	PK string `dynamodbav:"pk" json:"pk"`
	SK string `dynamodbav:"sk" json:"sk"`

	Title        string         `dynamodbav:"title" json:"title" validate:"required"`
	Description  string         `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Slug         string         `dynamodbav:"slug" json:"slug" validate:"required"`
	From         string         `dynamodbav:"from,omitempty" json:"from,omitempty"`
	To           string         `dynamodbav:"to,omitempty" json:"to,omitempty"`
	Location     string         `dynamodbav:"location,omitempty" json:"location,omitempty"`
	AssetURL     string         `dynamodbav:"assetUrl,omitempty" json:"assetUrl,omitempty"`
	TrainingURL  string         `dynamodbav:"trainingUrl,omitempty" json:"trainingUrl,omitempty"`
	CreationDate string         `dynamodbav:"creationDate" json:"creationDate" validate:"required"`
	EventType    string         `dynamodbav:"eventType" json:"eventType"`
	CreditNumber int            `dynamodbav:"creditNumber" json:"creditNumber"`
	Schedule     []ScheduleItem `dynamodbav:"eventSchedule,omitempty" json:"eventSchedule,omitempty"`
	Referees     []Referee      `dynamodbav:"referees,omitempty" json:"referees,omitempty"`
	ExtraInfo    *ExtraInfo     `dynamodbav:"extraInfo,omitempty" json:"extraInfo,omitempty"`

	// AttendeeCount is maintained by the stream counter, never by handlers.
	AttendeeCount int64 `dynamodbav:"attendeeCount,omitempty" json:"attendeeCount,omitempty"`

	UpdatedDate string `dynamodbav:"updatedDate,omitempty" json:"updatedDate,omitempty"`
	UpdatedBy   string `dynamodbav:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// SetKey derives and assigns the record key from the partition key variant
// plus the entity's slug and creation date.
func (e *Event) SetKey(partition string) {
	e.PK = partition
	e.SK = EventSK(e.Slug, e.CreationDate)
	e.EventType = partition
}

// Key returns the record's primary key.
func (e *Event) Key() EventKey {
	return EventKey{PK: e.PK, SK: e.SK}
}

// Registrant is an attendee or participant record; the two entities share
// a shape and differ only in partition key suffix and registration flow.
type Registrant struct {
	PK string `dynamodbav:"pk" json:"pk"`
	SK string `dynamodbav:"sk" json:"sk"`

	FirstName  string `dynamodbav:"firstName" json:"firstName"`
	LastName   string `dynamodbav:"lastName" json:"lastName"`
	Email      string `dynamodbav:"email" json:"email"`
	Phone      string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Profession string `dynamodbav:"profession,omitempty" json:"profession,omitempty"`
	EventSlug  string `dynamodbav:"eventSlug" json:"eventSlug"`
	EventType  string `dynamodbav:"eventType" json:"eventType"`

	// PaymentScreenshotKey is the S3 key of the uploaded payment proof,
	// set only on the self-service path.
	PaymentScreenshotKey string `dynamodbav:"paymentScreenshotKey,omitempty" json:"paymentScreenshotKey,omitempty"`

	AttendanceStatus string `dynamodbav:"attendanceStatus" json:"attendanceStatus"`
	RegistrationType string `dynamodbav:"registrationType,omitempty" json:"registrationType,omitempty"`
	RegistrationDate string `dynamodbav:"registrationDate" json:"registrationDate"`
	RegisteredBy     string `dynamodbav:"registeredBy,omitempty" json:"registeredBy,omitempty"`

	VerifiedDate string `dynamodbav:"verifiedDate,omitempty" json:"verifiedDate,omitempty"`
	VerifiedBy   string `dynamodbav:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	UpdatedDate  string `dynamodbav:"updatedDate,omitempty" json:"updatedDate,omitempty"`
	UpdatedBy    string `dynamodbav:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}
