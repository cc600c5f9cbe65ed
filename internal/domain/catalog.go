package domain

// License is a Creative Commons license an organizer attaches to an event.
type License struct {
	Code        string `json:"codigo" yaml:"code"`
	FullName    string `json:"nombreCompleto" yaml:"full_name"`
	Description string `json:"descripcion" yaml:"description"`
	IconURL     string `json:"iconoUrl" yaml:"icon_url"`
}

var (
	LicenseCCBY = License{
		Code:        "CC BY",
		FullName:    "Atribución",
		Description: "Permite a otros distribuir, mezclar, ajustar y construir a partir de tu obra, incluso comercialmente, siempre que te den crédito por la creación original.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by.png",
	}
	LicenseCCBYSA = License{
		Code:        "CC BY-SA",
		FullName:    "Atribución-CompartirIgual",
		Description: "Permite a otros mezclar, ajustar y construir a partir de tu obra, incluso comercialmente, siempre que te den crédito y licencien sus nuevas obras bajo condiciones idénticas.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by-sa.png",
	}
	LicenseCCBYND = License{
		Code:        "CC BY-ND",
		FullName:    "Atribución-SinDerivadas",
		Description: "Permite la redistribución comercial y no comercial, siempre y cuando la obra se transmita íntegra y sin cambios, dándote crédito.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by-nd.png",
	}
	LicenseCCBYNC = License{
		Code:        "CC BY-NC",
		FullName:    "Atribución-NoComercial",
		Description: "Permite a otros mezclar, ajustar y construir a partir de tu obra de manera no comercial, y aunque sus nuevas obras deben reconocerte y ser no comerciales, no tienen que licenciarse bajo las mismas condiciones.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by-nc.png",
	}
	LicenseCCBYNCSA = License{
		Code:        "CC BY-NC-SA",
		FullName:    "Atribución-NoComercial-CompartirIgual",
		Description: "Permite a otros mezclar, ajustar y construir a partir de tu obra de manera no comercial, siempre que te den crédito y licencien sus nuevas obras bajo condiciones idénticas.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by-nc-sa.png",
	}
	LicenseCCBYNCND = License{
		Code:        "CC BY-NC-ND",
		FullName:    "Atribución-NoComercial-SinDerivadas",
		Description: "Es la más restrictiva. Solo permite que otros puedan descargar las obras y compartirlas con otras personas, siempre que te den crédito, pero no se pueden cambiar de ninguna manera ni se pueden utilizar comercialmente.",
		IconURL:     "https://mirrors.creativecommons.org/presskit/buttons/88x31/png/by-nc-nd.png",
	}
)

// Licenses lists the catalog in display order.
var Licenses = []License{
	LicenseCCBY, LicenseCCBYSA, LicenseCCBYND,
	LicenseCCBYNC, LicenseCCBYNCSA, LicenseCCBYNCND,
}

// LicenseFromCode resolves a license code, falling back to CC BY for unknown
// codes.
func LicenseFromCode(code string) License {
	for _, l := range Licenses {
		if l.Code == code {
			return l
		}
	}
	return LicenseCCBY
}

const (
	DefaultCategory = "General"
	// AllCategories is the pseudo-category that disables filtering.
	AllCategories = "Todos"
)

var Categories = []string{
	"General", "Deportes", "Música", "Tecnología",
	"Arte", "Educación", "Negocios", "Social", "Otro",
}

func IsCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
