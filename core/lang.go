package core

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
)

// langStrings are the theme's language strings; {0}, {1}.. are replaced by parameters.
var langStrings = map[string]string{
	"activityoutof":              "{0} out of {1} activities complete",
	"address":                    "Address",
	"ago":                        "{0} ago",
	"availablecourses":           "Available courses",
	"blue":                       "Blue",
	"bootstrapcolor":             "Bootstrap color",
	"bootstrapcolordesc":         "Contextual color of the item.",
	"complete":                   "Complete",
	"configtitle":                "University",
	"content":                    "Content",
	"contentdesc":                "Text shown in the item, HTML is allowed.",
	"continue":                   "Continue",
	"copyright":                  "Copyright",
	"copyright_default":          "Copyright &copy; University. All rights reserved.",
	"count":                      "Number of items",
	"countdesc":                  "Number of items shown, the settings of each item appear below once saved.",
	"customcss":                  "Custom CSS",
	"customcssdesc":              "Rules added here are loaded on every page after the theme styles.",
	"dark_cyan":                  "Dark cyan",
	"defaultaddress":             "308 Negra Narrow Lane, Albeeze, New York, 87104",
	"defaultemailid":             "info@example.com",
	"defaultphoneno":             "(000) 123-456",
	"duedate":                    "Due {0}",
	"edit":                       "Edit",
	"emailid":                    "Email",
	"expired":                    "expired",
	"faicondesc":                 "Name of a [Font Awesome](https://fontawesome.com/v4/icons/) icon, without the `fa-` prefix.",
	"fburl":                      "Facebook",
	"fburl_default":              "https://www.facebook.com/yourfacebookid",
	"fburldesc":                  "The Facebook url of your organisation.",
	"footerblink":                "Footer block links",
	"footerblink2default":        "<ul><li><a href=\"#\">About us</a></li><li><a href=\"#\">Contact</a></li></ul>",
	"footerblink_desc":           "The links of the footer block, as an HTML list.",
	"footerblklogo":              "Show the logo in the footer",
	"footerblock":                "Footer block",
	"footerbtitle2default":       "Info",
	"footerbtitle3default":       "Follow us",
	"footerbtitle4default":       "Contact",
	"footerbtitle_desc":          "Title of the footer block.",
	"footerheading":              "Footer",
	"footnote":                   "Footnote",
	"footnotedefault":            "University is a learning platform for students, teachers and staff.",
	"footnotedesc":               "Text shown under the footer logo.",
	"fulllistofcourses":          "All courses",
	"getstarted":                 "Get started",
	"gpurl":                      "Google+",
	"gpurl_default":              "https://www.google.com/+yourgoogleplusid",
	"gpurldesc":                  "The Google+ url of your organisation.",
	"green":                      "Green",
	"hexcolor":                   "Color",
	"hexcolordesc":               "Hexadecimal color of the item, e.g. `#1a2b3c`.",
	"icon":                       "Icon",
	"image":                      "Image",
	"imagedesc":                  "Image of the item.",
	"importsettingsinvalidfile":  "The uploaded archive must contain exactly one *_settings.xml file.",
	"importsettingsmismatch":     "The settings file was exported from theme \"{0}\", it has been imported anyway.",
	"importsettingsmissingfile":  "File \"{0}\" for setting \"{1}\" is missing from the archive, skipped.",
	"importsettingsinvalidvalue": "The value of setting \"{0}\" is not valid, skipped.",
	"inprogress":                 "In progress",
	"item":                       "Item {0}",
	"knowmore":                   "Know more",
	"lastaccessed":               "Last accessed: {0}",
	"lavender":                   "Lavender",
	"linktext":                   "Link text",
	"linktextdesc":               "Text of the item button.",
	"logo":                       "Logo",
	"logodesc":                   "Logo shown in the header, replacing the site name.",
	"logosheading":               "Logos",
	"marketingspotsheading":      "Marketing spots",
	"mspot1descdefault":          "Find the course you need among hundreds of subjects.",
	"mspot1titledefault":         "Learn anywhere",
	"mspot2descdefault":          "Earn certificates recognised by employers.",
	"mspot2titledefault":         "Get certified",
	"mspot3descdefault":          "Follow the news of the campus and of your courses.",
	"mspot3titledefault":         "Stay informed",
	"mspot4descdefault":          "Every page works on phones and tablets.",
	"mspot4titledefault":         "On the go",
	"mycourses":                  "My courses",
	"nocontent":                  "Nothing has been configured here yet.",
	"nomycourses":                "You are not enrolled in any course.",
	"nosettingstoimport":         "The settings file does not contain any settings.",
	"notstarted":                 "Not started",
	"patternselect":              "Color scheme",
	"patternselectdesc":          "Color scheme of the theme.",
	"pcourseenable":              "Enable promoted courses",
	"pcourses":                   "Promoted courses",
	"pcoursesdesc":               "Comma separated ids of the courses to promote on the front page.",
	"phoneno":                    "Phone",
	"pinurl":                     "Pinterest",
	"pinurl_default":             "https://in.pinterest.com/yourpinterestname/",
	"pinurldesc":                 "The Pinterest url of your organisation.",
	"progress":                   "Progress",
	"promotedcoursesheading":     "Promoted courses",
	"promotedtitledefault":       "Promoted courses",
	"promotedtitledesc":          "Title of the promoted courses block.",
	"settingsexportsubject":      "{0} settings export",
	"settingsinfo":               "{0} settings and {1} files imported.",
	"slidecaptiondefault":        "Bootstrap based responsive theme",
	"slideshowdesc":              "Upload the images of the slides, add a caption and a button to each of them.\n\n*Images are best at 1600x450 pixels.*",
	"slideshowheading":           "Slideshow",
	"summary":                    "Summary",
	"teamheading":                "Team",
	"testimonialsheading":        "Testimonials",
	"themegeneralsettings":       "General",
	"title":                      "Title",
	"titledesc":                  "Title of the item.",
	"twurl":                      "Twitter",
	"twurl_default":              "https://twitter.com/yourtwitterid",
	"twurldesc":                  "The Twitter url of your organisation.",
	"upcomingcertifications":     "Upcoming certifications",
	"url":                        "Link",
	"urldesc":                    "Url the item button links to.",
	"warm_red":                   "Warm red",
}

// Lang resolves language strings through a translator.
type Lang struct {
	translator ut.Translator
}

// NewLang registers the theme's language strings on translator.
func NewLang(translator ut.Translator) *Lang {
	for key, text := range langStrings {
		_ = translator.Add(langKey(key), text, true)
	}
	return &Lang{translator: translator}
}

// Get returns the language string for key. Unknown keys render as [[key]].
func (l *Lang) Get(key string, params ...interface{}) string {
	strParams := make([]string, 0, len(params))
	for _, p := range params {
		strParams = append(strParams, fmt.Sprint(p))
	}
	s, err := l.translator.T(langKey(key), strParams...)
	if err != nil {
		return "[[" + key + "]]"
	}
	return s
}

// Resolve expands a "lang:<key>" value to its language string; other values pass through.
func (l *Lang) Resolve(value string) string {
	if key := strings.TrimPrefix(value, "lang:"); key != value {
		return l.Get(key)
	}
	return value
}

func langKey(key string) string {
	return "lang." + key
}
