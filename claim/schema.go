// Package claim holds the fixed claim schema and the immutable record built
// from it. The schema table is the single source for form construction,
// JSON-schema generation and record validation.
package claim

import (
	"fmt"
	"sort"
)

// Kind is the semantic type of a column.
type Kind int

const (
	// KindCategory values are one of a fixed, ordered list of strings.
	KindCategory Kind = iota
	// KindInteger values lie within a closed range on a step grid.
	KindInteger
	// KindChoice values are one of a fixed list of integers.
	KindChoice
	// KindConstant columns carry a hard-coded value the user never sees.
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindInteger:
		return "integer"
	case KindChoice:
		return "choice"
	case KindConstant:
		return "constant"
	}
	return "unknown"
}

// Control is the widget used to render a field.
type Control string

const (
	ControlSelect Control = "select"
	ControlSlider Control = "slider"
	ControlNumber Control = "number"
	ControlHidden Control = "hidden"
)

// GroupID names a column of the form layout.
type GroupID string

const (
	GroupDateTime     GroupID = "datetime"
	GroupVehicle      GroupID = "vehicle"
	GroupPersonal     GroupID = "personal"
	GroupNumericLeft  GroupID = "numeric-left"
	GroupNumericMid   GroupID = "numeric-mid"
	GroupNumericRight GroupID = "numeric-right"
	GroupHistory      GroupID = "history"
	GroupAccount      GroupID = "account"
)

// Field describes one column of the record.
type Field struct {
	Name    string
	Label   string
	Help    string
	Kind    Kind
	Control Control
	Group   GroupID
	Order   int

	Options []string // KindCategory
	Choices []int    // KindChoice
	Min     int      // KindInteger
	Max     int      // KindInteger
	Step    int      // KindInteger

	Default interface{}
}

// UserEditable reports whether the field is exposed on the form.
func (f Field) UserEditable() bool {
	return f.Kind != KindConstant
}

// Group is one column of a form row.
type Group struct {
	ID    GroupID
	Title string
}

// Row is one horizontal band of the form.
type Row struct {
	Title  string
	Groups []Group
}

func category(name, label string, group GroupID, order int, options ...string) Field {
	return Field{
		Name:    name,
		Label:   label,
		Kind:    KindCategory,
		Control: ControlSelect,
		Group:   group,
		Order:   order,
		Options: options,
		Default: options[0],
	}
}

func integer(name, label, help string, control Control, group GroupID, order, min, max, step, def int) Field {
	return Field{
		Name:    name,
		Label:   label,
		Help:    help,
		Kind:    KindInteger,
		Control: control,
		Group:   group,
		Order:   order,
		Min:     min,
		Max:     max,
		Step:    step,
		Default: def,
	}
}

func choice(name, label string, group GroupID, order int, def int, choices ...int) Field {
	return Field{
		Name:    name,
		Label:   label,
		Kind:    KindChoice,
		Control: ControlSelect,
		Group:   group,
		Order:   order,
		Choices: choices,
		Default: def,
	}
}

func constant(name string, value float64) Field {
	return Field{
		Name:    name,
		Label:   name,
		Kind:    KindConstant,
		Control: ControlHidden,
		Default: value,
	}
}

// Columns are in the order the trained model expects them.
var fields = []Field{
	category("Month", "Month", GroupDateTime, 1,
		"Dec", "Jan", "Oct", "Jun", "Feb", "Nov", "Apr", "Mar", "Aug", "Jul", "May", "Sep"),
	constant("WeekOfMonth", 2.79),
	category("DayOfWeek", "Day of Week", GroupDateTime, 2,
		"Wednesday", "Friday", "Saturday", "Monday", "Tuesday", "Sunday", "Thursday"),
	category("Make", "Vehicle Make", GroupVehicle, 1,
		"Honda", "Toyota", "Ford", "Mazda", "Chevrolet", "Pontiac", "Accura", "Dodge",
		"Mercury", "Jaguar", "Nissan", "VW", "Saab", "Saturn", "Porsche", "BMW",
		"Mercedes", "Ferrari", "Lexus"),
	category("AccidentArea", "Accident Area", GroupPersonal, 3, "Urban", "Rural"),
	category("DayOfWeekClaimed", "Day of Week Claimed", GroupDateTime, 3,
		"Tuesday", "Monday", "Thursday", "Friday", "Wednesday", "Saturday", "Sunday"),
	category("MonthClaimed", "Month Claimed", GroupDateTime, 4,
		"Jan", "Nov", "Jul", "Feb", "Mar", "Dec", "Apr", "Aug", "May", "Jun", "Sep", "Oct"),
	constant("WeekOfMonthClaimed", 2.69),
	category("Sex", "Sex", GroupPersonal, 1, "Female", "Male"),
	category("MaritalStatus", "Marital Status", GroupPersonal, 2, "Single", "Married", "Widow", "Divorced"),
	integer("Age", "Age", "Age of the policy holder", ControlSlider, GroupNumericLeft, 1, 0, 80, 1, 40),
	category("Fault", "Fault", GroupPersonal, 4, "Policy Holder", "Third Party"),
	category("PolicyType", "Policy Type", GroupVehicle, 3,
		"Sport - Liability", "Sport - Collision", "Sedan - Liability", "Utility - All Perils",
		"Sedan - All Perils", "Sedan - Collision", "Utility - Collision", "Utility - Liability",
		"Sport - All Perils"),
	category("VehicleCategory", "Vehicle Category", GroupVehicle, 2, "Sport", "Utility", "Sedan"),
	category("VehiclePrice", "Vehicle Price Range", GroupNumericRight, 1,
		"more than 69000", "20000 to 29000", "30000 to 39000", "less than 20000",
		"40000 to 59000", "60000 to 69000"),
	category("Days_Policy_Accident", "Days Policy Accident", GroupNumericRight, 2,
		"more than 30", "15 to 30", "none", "1 to 7", "8 to 15"),
	category("Days_Policy_Claim", "Days Policy Claim", GroupNumericRight, 3,
		"more than 30", "15 to 30", "8 to 15", "none"),
	category("PastNumberOfClaims", "Past Number of Claims", GroupHistory, 1,
		"none", "1", "2 to 4", "more than 4"),
	category("AgeOfVehicle", "Age of Vehicle", GroupHistory, 2,
		"3 years", "6 years", "7 years", "more than 7", "5 years", "new", "4 years", "2 years"),
	category("AgeOfPolicyHolder", "Age of Policy Holder Range", GroupHistory, 3,
		"26 to 30", "31 to 35", "41 to 50", "51 to 65", "21 to 25", "36 to 40",
		"16 to 17", "over 65", "18 to 20"),
	category("PoliceReportFiled", "Police Report Filed", GroupPersonal, 5, "No", "Yes"),
	category("WitnessPresent", "Witness Present", GroupPersonal, 6, "No", "Yes"),
	category("AgentType", "Agent Type", GroupVehicle, 5, "External", "Internal"),
	category("NumberOfSuppliments", "Number of Supplements", GroupAccount, 1,
		"none", "more than 5", "3 to 5", "1 to 2"),
	category("AddressChange_Claim", "Address Change Claim", GroupAccount, 2,
		"1 year", "no change", "4 to 8 years", "2 to 3 years", "under 6 months"),
	category("NumberOfCars", "Number of Cars", GroupAccount, 3,
		"3 to 4", "1 vehicle", "2 vehicles", "5 to 8", "more than 8"),
	category("BasePolicy", "Base Policy", GroupVehicle, 4, "Liability", "Collision", "All Perils"),
	integer("PolicyNumber", "Policy Number", "Unique policy identifier", ControlNumber, GroupNumericLeft, 2, 1, 1542, 1, 771),
	integer("RepNumber", "Rep Number", "Representative number", ControlSlider, GroupNumericLeft, 3, 1, 16, 1, 8),
	integer("Deductible", "Deductible ($)", "Insurance deductible amount", ControlSlider, GroupNumericMid, 1, 300, 700, 100, 400),
	integer("DriverRating", "Driver Rating", "Driver safety rating", ControlSlider, GroupNumericMid, 2, 1, 4, 1, 2),
	choice("Year", "Year", GroupNumericMid, 3, 1995, 1994, 1995, 1996),
}

var layout = []Row{
	{
		Title: "Enter Claim Information",
		Groups: []Group{
			{ID: GroupDateTime, Title: "Date & Time Information"},
			{ID: GroupVehicle, Title: "Vehicle & Policy Information"},
			{ID: GroupPersonal, Title: "Personal Information"},
		},
	},
	{
		Title: "Numerical Information",
		Groups: []Group{
			{ID: GroupNumericLeft},
			{ID: GroupNumericMid},
			{ID: GroupNumericRight},
		},
	},
	{
		Title: "Additional Information",
		Groups: []Group{
			{ID: GroupHistory},
			{ID: GroupAccount},
		},
	},
}

var index map[string]int

func init() {
	index = make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := index[f.Name]; dup {
			panic(fmt.Sprintf("claim: duplicate column %q", f.Name))
		}
		if err := f.check(f.Default); err != nil {
			panic(fmt.Sprintf("claim: default of %q out of domain: %v", f.Name, err))
		}
		index[f.Name] = i
	}
}

// Schema returns the columns in model order.
func Schema() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Columns returns the column names in model order.
func Columns() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the field definition for name.
func Lookup(name string) (Field, bool) {
	i, ok := index[name]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// Layout returns the form rows in display order.
func Layout() []Row {
	return layout
}

// GroupFields returns the user-editable fields of a layout group in display
// order.
func GroupFields(id GroupID) []Field {
	var out []Field
	for _, f := range fields {
		if f.Group == id && f.UserEditable() {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
