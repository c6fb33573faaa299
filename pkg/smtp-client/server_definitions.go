package smtp_client

type SmtpAuth struct {
	Username string `yaml:"user"`
	Password string `yaml:"password"`
}

type SmtpServer struct {
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	Connections        int      `yaml:"connections"`
	InsecureSkipVerify bool     `yaml:"insecureSkipVerify"`
	AuthData           SmtpAuth `yaml:"auth"`
	SendTimeout        int      `yaml:"sendTimeout"`
}

// SmtpServerList holds the configured servers plus the header defaults
// applied to every outgoing message.
type SmtpServerList struct {
	Servers []SmtpServer `yaml:"servers"`
	From    string       `yaml:"from"`
	Sender  string       `yaml:"sender"`
	ReplyTo []string     `yaml:"replyTo"`
}

// Address URI to smtp server
func (s *SmtpServer) Address() string {
	return s.Host + ":" + s.Port
}

// SetUsername sets the username for SMTP authentication
func (s *SmtpServer) SetUsername(username string) {
	s.AuthData.Username = username
}

// SetPassword sets the password for SMTP authentication
func (s *SmtpServer) SetPassword(password string) {
	s.AuthData.Password = password
}
