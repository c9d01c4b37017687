package domain

type CareerCategory string

const (
	CategoryTechnology     CareerCategory = "Technology"
	CategoryHealthcare     CareerCategory = "Healthcare"
	CategoryBusiness       CareerCategory = "Business"
	CategoryFinance        CareerCategory = "Finance"
	CategoryEngineering    CareerCategory = "Engineering"
	CategoryEducation      CareerCategory = "Education"
	CategoryArtsDesign     CareerCategory = "Arts & Design"
	CategoryLaw            CareerCategory = "Law"
	CategoryAgriculture    CareerCategory = "Agriculture"
	CategoryHospitality    CareerCategory = "Hospitality"
	CategoryMedia          CareerCategory = "Media & Communication"
	CategoryScience        CareerCategory = "Science"
	CategorySocialSciences CareerCategory = "Social Sciences"
	CategoryConstruction   CareerCategory = "Construction"
	CategoryTransport      CareerCategory = "Transport & Logistics"
	CategoryOther          CareerCategory = "Other"
)

var CareerCategories = []CareerCategory{
	CategoryTechnology, CategoryHealthcare, CategoryBusiness, CategoryFinance,
	CategoryEngineering, CategoryEducation, CategoryArtsDesign, CategoryLaw,
	CategoryAgriculture, CategoryHospitality, CategoryMedia, CategoryScience,
	CategorySocialSciences, CategoryConstruction, CategoryTransport, CategoryOther,
}

func (c CareerCategory) Valid() bool {
	for _, v := range CareerCategories {
		if v == c {
			return true
		}
	}
	return false
}

// MeanGrade is a KCSE mean grade.
type MeanGrade string

// MeanGrades is ordered best first.
var MeanGrades = []MeanGrade{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "E"}

// Rank is the position of g in MeanGrades (0 is best), or -1 when g is unknown.
func (g MeanGrade) Rank() int {
	for i, v := range MeanGrades {
		if v == g {
			return i
		}
	}
	return -1
}

func (g MeanGrade) Valid() bool { return g.Rank() >= 0 }

type MarketDemand string

const (
	DemandVeryHigh MarketDemand = "Very High"
	DemandHigh     MarketDemand = "High"
	DemandMedium   MarketDemand = "Medium"
	DemandLow      MarketDemand = "Low"
)

// MarketDemands is ordered highest first.
var MarketDemands = []MarketDemand{DemandVeryHigh, DemandHigh, DemandMedium, DemandLow}

// Rank is the position of d in MarketDemands (0 is highest), or -1 when unknown.
func (d MarketDemand) Rank() int {
	for i, v := range MarketDemands {
		if v == d {
			return i
		}
	}
	return -1
}

func (d MarketDemand) Valid() bool { return d.Rank() >= 0 }

type InstitutionType string

const (
	InstitutionUniversity InstitutionType = "University"
	InstitutionCollege    InstitutionType = "College"
	InstitutionTechnical  InstitutionType = "Technical Institute"
	InstitutionVocational InstitutionType = "Vocational Center"
	InstitutionOther      InstitutionType = "Other"
)

var InstitutionTypes = []InstitutionType{
	InstitutionUniversity, InstitutionCollege, InstitutionTechnical, InstitutionVocational, InstitutionOther,
}

func (t InstitutionType) Valid() bool {
	for _, v := range InstitutionTypes {
		if v == t {
			return true
		}
	}
	return false
}

type ProgramLevel string

var ProgramLevels = []ProgramLevel{
	"Certificate", "Diploma", "Higher Diploma", "Bachelor's Degree", "Master's Degree", "PhD", "Other",
}

func (l ProgramLevel) Valid() bool {
	for _, v := range ProgramLevels {
		if v == l {
			return true
		}
	}
	return false
}
