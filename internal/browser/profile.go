package browser

import "github.com/shaiso/Surfer/internal/domain"

// hardenedArgs — флаги Chromium для контейнерного production окружения.
var hardenedArgs = []string{
	"no-sandbox",
	"disable-dev-shm-usage",
	"disable-gpu",
	"disable-setuid-sandbox",
	"disable-software-rasterizer",
}

// Environment — окружение, в котором запускается браузер.
type Environment struct {
	Production bool
}

// Profile — итоговые параметры запуска браузера.
type Profile struct {
	Headless        bool
	DisableSecurity bool
	WindowWidth     int
	WindowHeight    int
	Highlight       bool

	// ExecPath — путь к бинарнику Chrome. Пустой — поиск движком.
	ExecPath string

	// ExtraArgs — дополнительные флаги командной строки (без "--").
	ExtraArgs []string
}

// Build строит профиль запуска из пользовательских настроек.
//
// Production: headless и disable_security принудительно включены,
// добавляются hardenedArgs, пользовательский путь к Chrome игнорируется.
// Development: настройки применяются как есть.
// Размер окна и подсветка элементов учитываются в обоих режимах.
func Build(settings domain.BrowserSettings, env Environment) Profile {
	settings = settings.Normalize()

	p := Profile{
		Headless:        settings.Headless,
		DisableSecurity: settings.DisableSecurity,
		WindowWidth:     settings.WindowWidth,
		WindowHeight:    settings.WindowHeight,
		Highlight:       settings.HighlightElements,
		ExecPath:        settings.ChromePath,
	}

	if env.Production {
		p.Headless = true
		p.DisableSecurity = true
		p.ExecPath = ""
		p.ExtraArgs = append([]string(nil), hardenedArgs...)
	}

	return p
}

// Args возвращает полный набор флагов Chromium для профиля.
func (p Profile) Args() []string {
	args := append([]string(nil), p.ExtraArgs...)
	if p.DisableSecurity {
		args = append(args,
			"disable-web-security",
			"disable-site-isolation-trials",
			"disable-features=IsolateOrigins,site-per-process",
		)
	}
	return args
}
