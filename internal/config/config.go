package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	UploadsDir  string `env:"UPLOADS_DIR" envDefault:"uploads"`

	Auth     Auth        `envPrefix:"AUTH_"`
	Gateway  Gateway     `envPrefix:"GATEWAY_"`
	Bank     BankAccount `envPrefix:"BANK_"`
	Shipping Shipping    `envPrefix:"SHIPPING_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Auth struct {
	JWTSecret   string `env:"JWT_SECRET"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`
}

type Gateway struct {
	BaseApiURL  string `env:"BASE_API_URL"`
	SecretKey   string `env:"SECRET_KEY"`
	CallbackURL string `env:"CALLBACK_URL"`
	Currency    string `env:"CURRENCY" envDefault:"NGN"`
}

// BankAccount is the merchant account shown to shoppers paying by
// manual transfer.
type BankAccount struct {
	AccountName   string `env:"ACCOUNT_NAME"`
	AccountNumber string `env:"ACCOUNT_NUMBER"`
	BankName      string `env:"BANK_NAME"`
}

type Shipping struct {
	StandardCost string `env:"STANDARD_COST" envDefault:"1500"`
	ExpressCost  string `env:"EXPRESS_COST" envDefault:"3000"`
}
