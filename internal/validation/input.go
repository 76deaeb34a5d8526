package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinCustomerNameLength = 2
	MaxCustomerNameLength = 100
	MinPhoneDigits        = 10
	MaxPhoneDigits        = 15
	MaxEmailLength        = 254
	MaxStyleRefLength     = 500
	MaxFabricTypeLength   = 100
	MaxNotesLength        = 2000
	MaxTailorNotesLength  = 5000
)

var (
	emailRegex = regexp.MustCompile(`^[a-z0-9._+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ\s\-'.]+$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateCustomerName проверяет имя клиента.
func ValidateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("укажите имя")
	}
	if err := ValidateLength("имя", name, MinCustomerNameLength, MaxCustomerNameLength); err != nil {
		return err
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("имя может содержать только буквы, пробелы и дефис")
	}
	return nil
}

// PhoneDigits возвращает количество цифр в номере.
func PhoneDigits(phone string) int {
	n := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// ValidatePhone проверяет телефон: не меньше 10 цифр, допустимы +, пробелы, скобки и дефисы.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("укажите телефон")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("телефон может содержать только цифры, +, пробелы, скобки и дефис")
	}
	digits := PhoneDigits(phone)
	if digits < MinPhoneDigits {
		return fmt.Errorf("телефон должен содержать не менее %d цифр", MinPhoneDigits)
	}
	if digits > MaxPhoneDigits {
		return fmt.Errorf("телефон должен содержать не более %d цифр", MaxPhoneDigits)
	}
	return nil
}

// ValidateEmail проверяет формат email. Пустой email допустим: поле необязательное.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if err := ValidateLength("email", email, 0, MaxEmailLength); err != nil {
		return err
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}
	return nil
}

// ValidateContact проверяет контактные данные шага 0.
func ValidateContact(name, phone, email string) error {
	if err := ValidateCustomerName(name); err != nil {
		return err
	}
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	return ValidateEmail(email)
}

// ValidateStyle проверяет поля шага фасона и ткани.
func ValidateStyle(styleReference, fabricType, notes string) error {
	if err := ValidateLength("описание фасона", strings.TrimSpace(styleReference), 0, MaxStyleRefLength); err != nil {
		return err
	}
	if err := ValidateLength("тип ткани", strings.TrimSpace(fabricType), 0, MaxFabricTypeLength); err != nil {
		return err
	}
	return ValidateLength("комментарий", strings.TrimSpace(notes), 0, MaxNotesLength)
}

// ValidateTailorNotes проверяет заметки портного.
func ValidateTailorNotes(notes string) error {
	return ValidateLength("заметки портного", strings.TrimSpace(notes), 0, MaxTailorNotesLength)
}
