package workflow

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/estimator/internal/pricing"
)

// Question returns the single composite follow-up for a missing group.
func Question(group Group, projectType string, lang Language) string {
	switch group {
	case GroupProjectType:
		return localize(lang, questionProjectTypeEN, questionProjectTypeAR)
	case GroupBasics:
		return localize(lang, questionBasicsEN, questionBasicsAR)
	case GroupSpaces:
		switch projectType {
		case ProjectResidential:
			return localize(lang, questionResidentialEN, questionResidentialAR)
		case ProjectCommercial:
			return localize(lang, questionCommercialEN, questionCommercialAR)
		case ProjectFactory:
			return localize(lang, questionFactoryEN, questionFactoryAR)
		}
	}
	return localize(lang, "Please share any remaining project details.", "من فضلك قول باقي تفاصيل المشروع.")
}

const questionProjectTypeEN = `What type of project?
• Residential (apartment, villa, house, penthouse)
• Commercial (shop, office, showroom)
• Factory

Example: 'residential' or 'apartment'`

const questionProjectTypeAR = `ما نوع المشروع؟
• سكني (شقة، فيلا، منزل، بنتهاوس)
• تجاري (محل، مكتب، معرض)
• مصنع

مثال: 'سكني' أو 'residential'`

const questionBasicsEN = `Tell me about your project details:
• Total area in square meters?
• Current finishing status (bare concrete / plastered / semi-finished / painted)?
• Desired finishing level (basic / standard / premium / luxury)?

Example: '120m2, bare concrete, standard'`

const questionBasicsAR = `أخبرني عن تفاصيل المشروع:
• المساحة الإجمالية بالمتر المربع؟
• حالة التشطيب الحالية (عظم / محارة / نصف تشطيب / مدهون)؟
• مستوى التشطيب المطلوب (بسيط / عادي / ممتاز / فاخر)؟

مثال: '120 متر، عظم، عادي'`

const questionResidentialEN = `Tell me about the rooms:
• How many bedrooms?
• How many bathrooms?
• How many living rooms? (usually 1)
• How many kitchens? (usually 1)

Example: '3 bedrooms, 2 bathrooms, 1 living room, 1 kitchen'`

const questionResidentialAR = `أخبرني عن الغرف:
• كم عدد غرف النوم؟
• كم عدد الحمامات؟
• كم عدد غرف المعيشة؟ (عادة 1)
• كم عدد المطابخ؟ (عادة 1)

مثال: '3 غرف نوم، 2 حمام، 1 معيشة، 1 مطبخ'`

const questionCommercialEN = `Tell me about the spaces:
• How many shops/stores?
• How many offices?
• How many restrooms?
• Type (retail / office building / mixed use)?

Example: '2 shops, 1 office, 2 restrooms, retail'`

const questionCommercialAR = `أخبرني عن المساحات:
• كم عدد المحلات؟
• كم عدد المكاتب؟
• كم عدد دورات المياه؟
• نوع المشروع (محلات / مباني مكاتب / استخدام مختلط)؟

مثال: '2 محلات، 1 مكتب، 2 دورات مياه، محلات'`

const questionFactoryEN = `Tell me about the areas:
• Production area in square meters?
• Warehouse area in square meters?
• Office area in square meters?
• Factory type (light manufacturing / heavy industrial / warehouse)?

Example: '500m2 production, 200m2 warehouse, 50m2 office, light manufacturing'`

const questionFactoryAR = `أخبرني عن المساحات:
• مساحة منطقة الإنتاج بالمتر المربع؟
• مساحة المخزن بالمتر المربع؟
• مساحة المكاتب بالمتر المربع؟
• نوع المصنع (تصنيع خفيف / صناعي ثقيل / مخزن)؟

مثال: '500 متر إنتاج، 200 متر مخزن، 50 متر مكاتب، تصنيع خفيف'`

var categoryLabels = map[string][2]string{
	CategoryFlooring:      {"flooring", "الأرضيات"},
	CategoryWallPaint:     {"wall paint", "دهان الحوائط"},
	CategoryCeilingPaint:  {"ceiling paint", "دهان الأسقف"},
	CategoryBathroomTiles: {"bathroom tiles", "سيراميك الحمامات"},
	CategoryKitchenTiles:  {"kitchen tiles", "سيراميك المطبخ"},
	CategoryDoors:         {"doors", "الأبواب"},
}

func categoryLabel(category string, lang Language) string {
	l, ok := categoryLabels[category]
	if !ok {
		return category
	}
	return localize(lang, l[0], l[1])
}

// OptionsMessage renders the numbered option list for a category.
func OptionsMessage(category string, options []pricing.Material, lang Language) string {
	var b strings.Builder
	label := categoryLabel(category, lang)
	b.WriteString(localize(lang,
		fmt.Sprintf("Please choose the %s:", label),
		fmt.Sprintf("من فضلك اختار %s:", label),
	))
	b.WriteString("\n\n")
	for i, m := range options {
		fmt.Fprintf(&b, "%d. %s - %.2f %s/%s\n", i+1, m.Name, m.UnitPrice, m.Currency, m.Unit)
	}
	b.WriteString("\n")
	b.WriteString(localize(lang,
		"Reply with the option number or name.",
		"رد برقم الاختيار أو اسمه.",
	))
	return b.String()
}

func requirementsConfirmation(lang Language) string {
	return localize(lang, "Great! I have everything I need. Preparing your estimate...", "تمام! جاري تجهيز التكلفة...")
}

func criticalFailureMessage(lang Language) string {
	return localize(lang,
		"Sorry, we can't prepare an estimate right now. Please try again later.",
		"عذرًا، مش هنقدر نجهز التكلفة دلوقتي. حاول تاني بعدين.",
	)
}

func apologyMessage(lang Language) string {
	return localize(lang,
		"Sorry, something went wrong on our side. Please send your last message again.",
		"عذرًا، حصلت مشكلة عندنا. من فضلك ابعت رسالتك تاني.",
	)
}

func timeoutMessage(lang Language) string {
	return localize(lang,
		"This session has expired. Please start a new conversation to get an estimate.",
		"الجلسة انتهت. من فضلك ابدأ محادثة جديدة.",
	)
}

// terminalMessage answers a message sent to a session that already failed
// or expired.
func terminalMessage(status Status, lang Language) string {
	if status == StatusTimeout {
		return timeoutMessage(lang)
	}
	return criticalFailureMessage(lang)
}
