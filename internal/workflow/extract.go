package workflow

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	areaPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m²|m2|sq\.?\s?m\b|sqm|square\s*met(?:er|re)s?|met(?:er|re)s?\b|متر|م2|م²)`)
	bedroomPattern  = regexp.MustCompile(`(\d+)\s*(?:bed(?:room)?s?\b|غرف(?:ة)?\s*نوم|غرف\b|اوض(?:ة)?\s*نوم)`)
	bathroomPattern = regexp.MustCompile(`(\d+)\s*(?:bath(?:room)?s?\b|حمام(?:ات)?)`)
	livingPattern   = regexp.MustCompile(`(\d+)\s*(?:living(?:\s*rooms?)?\b|receptions?\b|معيشة|ريسبشن|صال(?:ة|ات))`)
	kitchenPattern  = regexp.MustCompile(`(\d+)\s*(?:kitchens?\b|مطبخ|مطابخ)`)
	shopPattern     = regexp.MustCompile(`(\d+)\s*(?:shops?\b|stores?\b|محل(?:ات)?)`)
	officePattern   = regexp.MustCompile(`(\d+)\s*(?:offices?\b|مكتب|مكاتب)`)
	restroomPattern = regexp.MustCompile(`(\d+)\s*(?:restrooms?\b|toilets?\b|bath(?:room)?s?\b|دور(?:ة|ات)\s*مياه|حمام(?:ات)?)`)

	productionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m²|m2|sqm|متر)?\s*(?:of\s+)?(?:production|manufacturing\s+area|إنتاج|انتاج)`)
	warehousePattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m²|m2|sqm|متر)?\s*(?:of\s+)?(?:warehouse|storage|مخزن|تخزين)`)
	officeAreaPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m²|m2|sqm|متر)\s*(?:of\s+)?(?:offices?|مكاتب|مكتب)`)
	subAreaQualifier  = regexp.MustCompile(`^\s*(?:of\s+)?(?:production|manufacturing|warehouse|storage|offices?\b|إنتاج|انتاج|مخزن|تخزين|مكاتب|مكتب)`)
	warehouseType     = regexp.MustCompile(`(?:^|[,;،.]\s*)(?:warehouse|مخزن)\s*(?:type)?\s*(?:$|[,;،.])`)

	budgetPattern   = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(?:egp\b|pounds?\b|جنيه)`)
	timelinePattern = regexp.MustCompile(`(\d+)\s*(?:months?\b|شهر|شهور|أشهر|اشهر)`)
)

type keywordSet struct {
	value string
	words []string
}

var (
	projectKeywords = []keywordSet{
		{ProjectResidential, []string{"residential", "apartment", "villa", "house", "flat", "penthouse", "duplex", "سكني", "شقة", "شقه", "فيلا", "بيت"}},
		{ProjectCommercial, []string{"commercial", "office", "shop", "store", "showroom", "تجاري", "مكتب", "محل", "معرض"}},
		{ProjectFactory, []string{"factory", "industrial", "plant", "مصنع", "صناعي"}},
	}
	statusKeywords = []keywordSet{
		{StatusBareConcrete, []string{"bare", "concrete", "shell", "عظم", "هيكل", "طوب"}},
		{StatusPlastered, []string{"plaster", "plastered", "محارة", "محاره"}},
		{StatusSemiFinished, []string{"semi", "semi-finished", "نصف", "نص تشطيب"}},
		{StatusPainted, []string{"painted", "مدهون", "متشطب"}},
	}
	levelKeywords = []keywordSet{
		{LevelLuxury, []string{"luxury", "lux", "فاخر", "لوكس", "سوبر لوكس"}},
		{LevelPremium, []string{"premium", "high-end", "ممتاز"}},
		{LevelStandard, []string{"standard", "normal", "عادي", "متوسط"}},
		{LevelBasic, []string{"basic", "economy", "بسيط", "اقتصادي"}},
	}
	styleKeywords = []keywordSet{
		{"modern", []string{"modern", "contemporary", "حديث", "مودرن"}},
		{"classic", []string{"classic", "classical", "كلاسيك", "كلاسيكي"}},
		{"minimal", []string{"minimal", "minimalist", "مينيمال"}},
	}
	commercialKeywords = []keywordSet{
		{"mixed_use", []string{"mixed", "mixed use", "mixed-use", "مختلط"}},
		{"office_building", []string{"office building", "offices building", "مباني مكاتب", "إداري", "اداري"}},
		{"retail", []string{"retail", "تجزئة", "محلات"}},
	}
	factoryKeywords = []keywordSet{
		{"light_manufacturing", []string{"light", "light manufacturing", "خفيف"}},
		{"heavy_industrial", []string{"heavy", "heavy industrial", "ثقيل"}},
	}
	cityKeywords = []keywordSet{
		{"New Cairo", []string{"new cairo", "التجمع", "القاهرة الجديدة"}},
		{"Cairo", []string{"cairo", "القاهرة", "قاهرة"}},
		{"Alexandria", []string{"alexandria", "alex", "الإسكندرية", "الاسكندرية", "اسكندرية"}},
		{"Giza", []string{"giza", "الجيزة", "جيزة"}},
		{"6th of October", []string{"october", "6th of october", "أكتوبر", "اكتوبر"}},
		{"Sheikh Zayed", []string{"zayed", "sheikh zayed", "زايد", "الشيخ زايد"}},
		{"Mansoura", []string{"mansoura", "المنصورة"}},
		{"Hurghada", []string{"hurghada", "الغردقة"}},
	}
)

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"٫", ".",
)

// KeywordExtract reads every field message states using bilingual keyword
// and pattern matching. Fields the message does not mention stay nil or
// empty, so merging the result keeps earlier answers and lets restated ones
// win.
func KeywordExtract(message string) Requirements {
	text := arabicDigits.Replace(strings.ToLower(message))
	words := tokenize(text)

	found := Requirements{
		ProjectType:    matchKeywords(text, words, projectKeywords),
		TotalAreaSqm:   matchTotalArea(text),
		CurrentStatus:  matchKeywords(text, words, statusKeywords),
		FinishingLevel: matchKeywords(text, words, levelKeywords),
		Style:          matchKeywords(text, words, styleKeywords),
		Location:       matchKeywords(text, words, cityKeywords),
		BudgetLimit:    matchFloat(budgetPattern, text),
		TimelineMonths: matchInt(timelinePattern, text),
		Spaces: Spaces{
			Bedrooms:          matchInt(bedroomPattern, text),
			Bathrooms:         matchInt(bathroomPattern, text),
			LivingRooms:       matchInt(livingPattern, text),
			Kitchens:          matchInt(kitchenPattern, text),
			Shops:             matchInt(shopPattern, text),
			Offices:           matchInt(officePattern, text),
			Restrooms:         matchInt(restroomPattern, text),
			CommercialType:    matchKeywords(text, words, commercialKeywords),
			ProductionAreaSqm: matchFloat(productionPattern, text),
			WarehouseAreaSqm:  matchFloat(warehousePattern, text),
			OfficeAreaSqm:     matchFloat(officeAreaPattern, text),
			FactoryType:       matchKeywords(text, words, factoryKeywords),
		},
	}

	if found.Spaces.FactoryType == "" && warehouseType.MatchString(strings.TrimSpace(text)) {
		found.Spaces.FactoryType = "warehouse"
	}

	return found.Normalize()
}

// matchTotalArea returns the first area that is not qualified as a
// production, warehouse or office sub-area.
func matchTotalArea(text string) *float64 {
	for _, m := range areaPattern.FindAllStringSubmatchIndex(text, -1) {
		if subAreaQualifier.MatchString(text[m[1]:]) {
			continue
		}
		v, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

// matchKeywords returns the value of the first set with a keyword present.
// Single-word keywords must match a whole token; phrases match as substrings.
func matchKeywords(text string, words []string, sets []keywordSet) string {
	for _, set := range sets {
		for _, kw := range set.words {
			if strings.ContainsAny(kw, " -") {
				if strings.Contains(text, kw) {
					return set.value
				}
				continue
			}
			for _, w := range words {
				if w == kw || (isArabicWord(kw) && strings.HasPrefix(w, kw)) || (isArabicWord(kw) && strings.HasPrefix(w, "ال"+kw)) {
					return set.value
				}
			}
		}
	}
	return ""
}

func isArabicWord(s string) bool {
	for _, r := range s {
		if isArabic(r) {
			return true
		}
	}
	return false
}

func matchFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func matchInt(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}
