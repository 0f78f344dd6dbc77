// Package messages composes every customer-facing WhatsApp text. Texts are
// pt-BR and follow the tone used across the Papa Tango apps. Keeping them
// in one place keeps the dispatch and routing code free of string
// assembly.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

const (
	// QRImageFilename and QRImageCaption label the PIX QR image sends.
	QRImageFilename = "QR_Code_PIX.png ☝️"
	QRImageCaption  = "QR Code para pagamento PIX ☝️"
)

func brl(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func brlFloat(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

func brDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func dayWord(n int) string {
	if n == 1 {
		return "dia"
	}
	return "dias"
}

func supportFooter(supportPhone string) string {
	return "Esta é uma mensagem automática, caso já tenha realizado o pagamento, desconsidere esta mensagem.\n" +
		"Caso precise de ajuda ou tenha alguma dúvida, entre em contato conosco através do WhatsApp *" + supportPhone + "*"
}

// Onboarding greets a sender whose phone matches no registered customer.
func Onboarding(supportPhone string) string {
	return "Olá! Parece que você ainda não está cadastrado no nosso sistema.\n\n" +
		"Baixe nosso aplicativo Papa Tango na Play Store ou fale conosco no WhatsApp " + supportPhone +
		" para se cadastrar e alugar uma moto!"
}

// AudioUnsupported replies to voice notes.
func AudioUnsupported() string {
	return "🤖 Desculpe, este é um *atendimento automatizado* e não consigo processar *mensagens de áudio*.\n\n" +
		"🤖 *Por favor, envie sua solicitação em formato de texto.*"
}

// ProofReceived acknowledges an image/document, assumed to be a payment
// receipt.
func ProofReceived(supportPhone string) string {
	return "*Obrigado por enviar seu comprovante* 🙏🏽\n\n" +
		"Seu pagamento será processado *automaticamente pelo sistema* assim que for *confirmado* pela instituição financeira.\n\n" +
		"Se precisar de ajuda, entre em contato com nosso suporte: " + supportPhone + ".\n\n" +
		"Verifique seu e-mail, pois quando o pagamento for aprovado enviaremos uma mensagem por lá.\n\n" +
		"*Obs: Caso já tenha recebido o e-mail de pagamento recebido, desconsidere este aviso.*"
}

// Gratitude replies to thank-you messages.
func Gratitude() string {
	return "De nada! Estamos sempre à disposição para ajudar. Se precisar de mais alguma coisa, é só me chamar :)"
}

// Agent points the customer at the human support line.
func Agent(supportPhone string) string {
	return "Por favor, entre em contato com nossa equipe de atendimento para obter assistência. O número para contato é " + supportPhone + ".\n\n" +
		"Este contato é *automatizado* e não posso responder a perguntas que *não sejam as mencionadas acima*."
}

// Menu is the numbered fallback for unrecognized text.
func Menu(name string) string {
	if name == "" {
		name = "cliente"
	}
	return fmt.Sprintf("Olá, *%s!* Como posso ajudar?\n\n", name) +
		"1️⃣ - Informações sobre pagamento\n" +
		"2️⃣ - Gerar boleto\n" +
		"3️⃣ - Gerar código PIX\n" +
		"4️⃣ - Verificar atraso\n" +
		"5️⃣ - Falar com atendente\n\n" +
		"Responda com o número da opção desejada ou digite sua dúvida."
}

// NoActiveContracts tells the customer no billing applies to them.
func NoActiveContracts(supportPhone string) string {
	return "Você *não possui contratos ativos* no momento. Para mais informações, acesse o *aplicativo Papa Tango* ou fale com suporte através do número " + supportPhone + "."
}

// RentalTermsMissing is the fallback when no rent amount resolves.
func RentalTermsMissing(supportPhone string) string {
	return "Não foi possível encontrar *informações do seu aluguel*. Por favor, entre em contato com nosso suporte " + supportPhone + "."
}

// GenericError is the apologetic catch-all for interactive failures.
func GenericError(supportPhone string) string {
	return "Desculpe, ocorreu um erro ao processar sua solicitação. Por favor, tente novamente mais tarde ou entre em contato com o suporte através do WhatsApp " + supportPhone + "."
}

// PaymentInfo summarizes the customer's billing position (menu option 1).
func PaymentInfo(name string, state *models.BillingState) string {
	var b strings.Builder
	b.WriteString("*Informações de Pagamento*\n\n")
	fmt.Fprintf(&b, "Cliente: *%s*\n", name)
	fmt.Fprintf(&b, "Valor: *%s*\n", brl(state.BaseAmount))
	fmt.Fprintf(&b, "Próximo pagamento: *%s*\n\n", brDate(state.DueDate))

	switch {
	case state.Overdue:
		b.WriteString("*⚠️ PAGAMENTO EM ATRASO ⚠️*\n")
		fmt.Fprintf(&b, "Dias em atraso: *%d*\n\n", state.DaysOverdue)
		b.WriteString("Por favor, regularize sua situação o mais rápido possível para evitar a suspensão do serviço.\n\n")
		b.WriteString("Para pagar agora, responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.")
	case state.DaysRemaining == 0:
		b.WriteString("*⚠️ PAGAMENTO VENCE HOJE ⚠️*\n\n")
		b.WriteString("Para pagar agora, responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.")
	default:
		fmt.Fprintf(&b, "Dias até o vencimento: *%d*\n\n", state.DaysRemaining)
		b.WriteString("Para pagar antecipadamente, responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.")
	}
	return b.String()
}

// OverdueCheck summarizes the customer's standing (menu option 4).
func OverdueCheck(name string, state *models.BillingState, supportPhone string) string {
	var b strings.Builder
	due := brDate(state.DueDate)
	switch {
	case state.Overdue:
		b.WriteString("*⚠️ PAGAMENTO EM ATRASO ⚠️*\n\n")
		fmt.Fprintf(&b, "Cliente: *%s*\n", name)
		fmt.Fprintf(&b, "Valor: *%s*\n", brl(state.BaseAmount))
		fmt.Fprintf(&b, "Data de vencimento: *%s*\n", due)
		fmt.Fprintf(&b, "Dias em atraso: *%d*\n\n", state.DaysOverdue)
		if state.DaysOverdue > 3 {
			b.WriteString("⚠️ *Atenção: Seu serviço pode ser suspenso devido ao atraso no pagamento* ⚠️\n\n")
		}
		b.WriteString("Para regularizar sua situação, você pode *pagar agora* através de *PIX* ou *boleto*.\n")
		b.WriteString("Responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.\n\n")
		b.WriteString("Se precisar de mais informações, entre em contato com nosso suporte no WhatsApp: " + supportPhone + ".\n\n")
	case state.DaysRemaining == 0:
		b.WriteString("*⚠️ HOJE É O DIA DO PAGAMENTO ⚠️*\n\n")
		fmt.Fprintf(&b, "Cliente: *%s*\n", name)
		fmt.Fprintf(&b, "Valor: *%s*\n", brl(state.BaseAmount))
		fmt.Fprintf(&b, "Próximo pagamento: *%s* *(Hoje)*\n\n", due)
		b.WriteString("✅ Sua situação está *regular*! Não há pagamentos em atraso.\n\n")
		b.WriteString("Hoje é o dia do pagamento, responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada, caso ainda não tenha recebido os dados para pagamento.")
	default:
		b.WriteString("*Situação de Pagamento*\n\n")
		fmt.Fprintf(&b, "Cliente: *%s*\n", name)
		fmt.Fprintf(&b, "Valor: *%s*\n", brl(state.BaseAmount))
		fmt.Fprintf(&b, "Próximo pagamento: *%s*\n", due)
		fmt.Fprintf(&b, "Dias até o vencimento: *%d*\n\n", state.DaysRemaining)
		b.WriteString("✅ Sua situação está *regular*! Não há pagamentos em atraso.\n\n")
		b.WriteString("Para pagar antecipadamente, responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.")
	}
	return b.String()
}

// SlipGenerating is the progress text before calling the processor.
func SlipGenerating() string {
	return "Gerando seu boleto, aguarde um momento..."
}

// SlipBelowMinimum refuses slip generation under the processor's floor.
func SlipBelowMinimum() string {
	return "O valor mínimo para gerar um boleto é R$ 3,00. Por favor, escolha outra forma de pagamento."
}

func overdueFeeNote(daysOverdue int) string {
	return fmt.Sprintf("⚠️ *ATENÇÃO: Seu pagamento está atrasado em %d %s*\n", daysOverdue, dayWord(daysOverdue)) +
		"O valor inclui multa de 2% + R$10 ao dia de atraso.\n\n"
}

// SlipExisting describes a reused pending slip. mismatch marks a live slip
// whose amount no longer equals the current fee-adjusted total.
func SlipExisting(rec *models.PaymentRecord, mismatch bool, currentAmount decimal.Decimal, state *models.BillingState) string {
	var b strings.Builder
	b.WriteString("*Você já possui um boleto pendente!*\n\n")
	fmt.Fprintf(&b, "Valor: *%s*\n", brlFloat(rec.Amount))
	fmt.Fprintf(&b, "ID do pagamento: *%s*\n\n", rec.PaymentID)

	if mismatch {
		fmt.Fprintf(&b, "⚠️ *ATENÇÃO: O valor deste boleto (%s) é diferente do valor atual (%s).*\n", brlFloat(rec.Amount), brl(currentAmount))
		b.WriteString("Isso pode ocorrer devido a atrasos acumulados. Você pode pagar este boleto ou cancelá-lo e gerar um novo.\n\n")
	} else if state.Overdue {
		b.WriteString(overdueFeeNote(state.DaysOverdue))
	}

	if rec.SlipURL != "" {
		b.WriteString("Acesse o link abaixo para visualizar e imprimir seu boleto:\n\n")
		b.WriteString(rec.SlipURL + "\n\n")
	} else {
		b.WriteString("⚠️ *Link do boleto não disponível. Por favor, acesse o aplicativo Papa Tango para visualizar seu boleto.*\n\n")
	}

	b.WriteString("⚠️ O boleto pode levar até 3 dias úteis para ser compensado após o pagamento.\n\n")
	b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n\n")
	b.WriteString("Código de barras 👇")
	return b.String()
}

// SlipBarcode is the copyable code line sent right after a slip message.
func SlipBarcode(rec *models.PaymentRecord) string {
	if rec.DigitableLine != "" {
		return rec.DigitableLine
	}
	if rec.Barcode != "" {
		return rec.Barcode
	}
	return "Código de barras não disponível. Por favor, use o link do boleto acima."
}

// SlipCancelled announces the cancel-and-reissue of a stale slip.
func SlipCancelled() string {
	return "Seu boleto anterior foi cancelado pois o valor está desatualizado e o prazo de pagamento já venceu. Gerando um novo boleto com o valor atualizado..."
}

// SlipCreated announces a freshly issued slip.
func SlipCreated(rec *models.PaymentRecord, state *models.BillingState) string {
	var b strings.Builder
	b.WriteString("*Boleto gerado com sucesso!*\n\n")
	fmt.Fprintf(&b, "Valor: *%s*\n", brlFloat(rec.Amount))
	fmt.Fprintf(&b, "ID do pagamento: *%s*\n\n", rec.PaymentID)
	if state.Overdue {
		b.WriteString(overdueFeeNote(state.DaysOverdue))
	}
	b.WriteString("Acesse o link abaixo para visualizar e imprimir seu boleto 👇\n\n")
	b.WriteString(rec.SlipURL + "\n\n")
	b.WriteString("⚠️ *O boleto pode levar até 3 dias úteis para ser compensado após o pagamento* ⚠️\n\n")
	b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n\n")
	b.WriteString("Código de barras 👇")
	return b.String()
}

// SlipError is the slip-specific failure apology.
func SlipError(supportPhone string) string {
	return "Desculpe, *ocorreu um erro ao gerar seu boleto*. Por favor, tente novamente mais tarde, use o aplicativo Papa Tango ou entre em contato com o suporte através do WhatsApp " + supportPhone + "."
}

// PixGenerating is the progress text before the PIX reconciliation.
func PixGenerating() string {
	return "Verificando pagamentos pendentes e gerando seu código PIX, aguarde um momento..."
}

// PixExistingFound precedes re-sending an already pending PIX.
func PixExistingFound() string {
	return "Encontramos um pagamento PIX pendente para você. Enviando os dados..."
}

// PixCancelled announces the cancel-and-reissue of a stale PIX.
func PixCancelled() string {
	return "Seu PIX anterior foi cancelado pois o valor está desatualizado devido ao atraso. Gerando um novo PIX com o valor atualizado..."
}

// PixCreated announces an issued (or reused) PIX code; the copy-paste code
// and the QR image follow as separate sends.
func PixCreated(rec *models.PaymentRecord, state *models.BillingState) string {
	var b strings.Builder
	b.WriteString("*Código PIX gerado com sucesso!*\n\n")
	fmt.Fprintf(&b, "Valor: *%s*\n", brlFloat(rec.Amount))
	fmt.Fprintf(&b, "ID do pagamento: *%s*\n\n", rec.PaymentID)
	if state.Overdue {
		b.WriteString(overdueFeeNote(state.DaysOverdue))
	}
	b.WriteString("⚠️ O pagamento via PIX é processado em poucos minutos após a confirmação.\n\n")
	b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n")
	b.WriteString("Escaneie o QR Code abaixo ou use o código PIX copia e cola 👇")
	return b.String()
}

// PixError is the PIX-specific failure apology.
func PixError(supportPhone string) string {
	return "Desculpe, *ocorreu um erro ao gerar seu código PIX*. Por favor, tente novamente mais tarde, use o aplicativo Papa Tango ou entre em contato com o suporte através do WhatsApp " + supportPhone + "."
}

// ReminderHead opens a scheduled reminder according to its kind.
func ReminderHead(kind models.ReminderKind, name string, state *models.BillingState) string {
	if name == "" {
		name = "cliente"
	}
	due := brDate(state.DueDate)
	var b strings.Builder
	switch kind {
	case models.ReminderDueToday:
		b.WriteString("*⚠️ LEMBRETE DE PAGAMENTO - VENCE HOJE ⚠️*\n\n")
		fmt.Fprintf(&b, "Olá, *%s!* Somos o *setor de boletos* da Papa Tango.\n", name)
		fmt.Fprintf(&b, "Seu pagamento de *%s* vence hoje *(%s).*\n", brl(state.FinalAmount), due)
	case models.ReminderUpcoming:
		b.WriteString("*🗓️ LEMBRETE DE PAGAMENTO 🗓️*\n\n")
		fmt.Fprintf(&b, "Olá, *%s!* Somos o *setor de boletos* da Papa Tango.\n", name)
		fmt.Fprintf(&b, "Seu pagamento de *%s* vencerá em *%d* %s *(%s).*\n",
			brl(state.FinalAmount), state.DaysRemaining, dayWord(state.DaysRemaining), due)
	default:
		b.WriteString("*⚠️ PAGAMENTO EM ATRASO ⚠️*\n\n")
		fmt.Fprintf(&b, "Olá, *%s!* Somos o *setor de boletos* da Papa Tango.\n", name)
		fmt.Fprintf(&b, "Notamos que seu pagamento de *%s* está atrasado há *%d* %s *(venceu em %s).*\n",
			brl(state.BaseAmount), state.DaysOverdue, dayWord(state.DaysOverdue), due)
		fmt.Fprintf(&b, "\n⚠️ *Valor atualizado com multa: %s*\n", brl(state.FinalAmount))
		b.WriteString("(Multa de 2% + R$10 ao dia de atraso)\n")
	}
	return b.String()
}

// ReminderPixIntro bridges the reminder head into the PIX payload sends.
func ReminderPixIntro() string {
	return "\nPara sua comodidade, segue os dados do PIX para realizar o pagamento.\n\nPIX copia e cola 👇"
}

// ReminderClosing closes a reminder that carried a PIX payload.
func ReminderClosing(kind models.ReminderKind, supportPhone string) string {
	var b strings.Builder
	switch kind {
	case models.ReminderDueToday:
		b.WriteString("⚠️ *O pagamento até hoje garante a permanência da locação da moto*⚠️\n\n")
		b.WriteString("Se preferir pagar com boleto, responda com \"BOLETO\" para gerar a opção desejada.\n\n")
		b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n")
	case models.ReminderUpcoming:
		b.WriteString("Se preferir pagar com boleto, responda com \"BOLETO\" para gerar a opção desejada.\n\n")
		b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n")
	default:
		b.WriteString("⚠️ *A sua locação poderá ser suspensa a qualquer momento se o pagamento não for realizado*⚠️\n\n")
		b.WriteString("⚠️ *Atenção: O valor aumentará a cada dia de atraso (R$10 ao dia)*\n\n")
	}
	b.WriteString(supportFooter(supportPhone))
	return b.String()
}

// ReminderTextOnly closes a reminder when no PIX payload was attached; the
// payment instructions fold into the single message.
func ReminderTextOnly(kind models.ReminderKind, supportPhone string) string {
	var b strings.Builder
	b.WriteString("\nPara sua comodidade, você pode pagar diretamente por aqui através de PIX ou boleto.\n")
	b.WriteString("Responda com *\"PIX\"* ou *\"BOLETO\"* para gerar a opção desejada.\n\n")
	switch kind {
	case models.ReminderOverdue:
		b.WriteString("⚠️ *A sua locação poderá ser suspensa a qualquer momento se o pagamento não for realizado*⚠️\n\n")
		b.WriteString("⚠️ *Atenção: O valor aumentará a cada dia de atraso (R$10 ao dia)*\n\n")
	case models.ReminderDueToday:
		b.WriteString("⚠️ *O pagamento até hoje garante a permanência da locação da moto*⚠️\n\n")
	}
	b.WriteString("*Obrigado por escolher a Papa Tango!*\n\n")
	b.WriteString(supportFooter(supportPhone))
	return b.String()
}

// EveningPixHead opens the evening re-send of an unpaid PIX issued today.
func EveningPixHead(name string, rec *models.PaymentRecord) string {
	if name == "" {
		name = "cliente"
	}
	var b strings.Builder
	b.WriteString("*🌙 LEMBRETE NOTURNO DE PAGAMENTO PIX 🌙*\n\n")
	fmt.Fprintf(&b, "Olá, *%s!*\n\n", name)
	fmt.Fprintf(&b, "Notamos que você ainda não concluiu o pagamento via PIX gerado hoje no valor de *%s*.\n\n", brlFloat(rec.Amount))
	if rec.Overdue {
		b.WriteString(overdueFeeNote(rec.DaysOverdue))
		b.WriteString("⚠️ *A sua locação poderá ser suspensa a qualquer momento se o pagamento não for realizado*⚠️\n\n")
	}
	b.WriteString("Para sua comodidade, estamos enviando novamente os dados do PIX para que você possa concluir o pagamento.\n\nPIX copia e cola 👇")
	return b.String()
}

// EveningPixClosing closes the evening PIX re-send.
func EveningPixClosing(supportPhone string) string {
	return "⚠️ *O pagamento via PIX é processado em poucos minutos após a confirmação.*\n\n" +
		"*Obrigado por escolher a Papa Tango!*\n\n" +
		"Esta é uma mensagem automática. Caso já tenha realizado o pagamento, desconsidere esta mensagem.\n" +
		"Caso precise de ajuda ou tenha alguma dúvida, entre em contato conosco através do WhatsApp *" + supportPhone + "*"
}

// VerificationCode carries an app login code to the customer.
func VerificationCode(code string) string {
	return "Seu código de verificação é: " + code
}
